package transient

import (
	"encoding/binary"
	"errors"

	"phone-verification/internal/flow"
	"phone-verification/internal/verification/domain"
)

const codecVersion byte = 1

var errCorruptRecord = errors.New("transient: corrupt record")

// encodeTransient writes version, credentials kind, then length-prefixed fields.
func encodeTransient(t *flow.Transient) []byte {
	creds, _ := t.Credentials()
	buf := []byte{codecVersion, byte(creds.Kind())}
	switch creds.Kind() {
	case domain.CredentialsAppHash:
		hash, _ := creds.AppHash()
		buf = appendField(buf, []byte(hash))
	case domain.CredentialsAppKeySecret:
		key, _ := creds.AppKey()
		secret, _ := creds.AppSecret()
		buf = appendField(buf, []byte(key))
		buf = appendField(buf, secret)
	}
	return buf
}

func decodeTransient(b []byte) (*flow.Transient, error) {
	if len(b) < 2 || b[0] != codecVersion {
		return nil, errCorruptRecord
	}
	kind, rest := domain.CredentialsKind(b[1]), b[2:]
	switch kind {
	case domain.CredentialsNone:
		return flow.NewTransient(domain.Credentials{}), nil
	case domain.CredentialsAppHash:
		hash, _, err := readField(rest)
		if err != nil {
			return nil, err
		}
		return flow.NewTransient(domain.AppHashCredentials(string(hash))), nil
	case domain.CredentialsAppKeySecret:
		key, rest, err := readField(rest)
		if err != nil {
			return nil, err
		}
		secret, _, err := readField(rest)
		if err != nil {
			return nil, err
		}
		return flow.NewTransient(domain.AppKeySecretCredentials(string(key), secret)), nil
	}
	return nil, errCorruptRecord
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(field)))
	return append(buf, field...)
}

func readField(b []byte) (field, rest []byte, err error) {
	if len(b) < 2 {
		return nil, nil, errCorruptRecord
	}
	n := int(binary.BigEndian.Uint16(b))
	if len(b) < 2+n {
		return nil, nil, errCorruptRecord
	}
	return b[2 : 2+n], b[2+n:], nil
}
