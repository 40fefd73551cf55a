package main

import (
	"context"
	"crypto"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/redis/go-redis/v9"

	"phone-verification/internal/audit"
	auditrepo "phone-verification/internal/audit/repository"
	"phone-verification/internal/config"
	"phone-verification/internal/db"
	"phone-verification/internal/devotp"
	devotphandler "phone-verification/internal/devotp/handler"
	"phone-verification/internal/flow"
	"phone-verification/internal/journey"
	journeyhandler "phone-verification/internal/journey/handler"
	"phone-verification/internal/journey/transient"
	"phone-verification/internal/mfa"
	mfarepo "phone-verification/internal/mfa/repository"
	"phone-verification/internal/mfa/sms"
	"phone-verification/internal/policy/engine"
	"phone-verification/internal/security"
	"phone-verification/internal/server"
	"phone-verification/internal/server/interceptors"
	"phone-verification/internal/telemetry"
	telemetryotel "phone-verification/internal/telemetry/otel"
	"phone-verification/internal/telemetry/producer"
	userrepo "phone-verification/internal/user/repository"
	"phone-verification/internal/verification/domain"
	"phone-verification/internal/verification/sinch"
	"phone-verification/internal/verification/twilio"
)

// app is the wired server: the gRPC dependencies plus everything to release on shutdown.
type app struct {
	deps    server.Deps
	closers []io.Closer
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func build(ctx context.Context, cfg *config.Config, providers *telemetryotel.Providers) (*app, error) {
	a := &app{}

	var conn *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.closers = append(a.closers, conn)
		a.deps.HealthPinger = conn
	} else {
		log.Println("database: DATABASE_URL not set, profiles and audit are in memory only")
	}

	var devStore *devotp.MemoryStore
	if cfg.OTPReturnToClient && cfg.VerificationBackend == config.BackendLocal {
		devStore = devotp.NewMemoryStore()
		a.deps.DevOTPHandler = devotphandler.NewServer(devStore)
		log.Println("mfa: dev OTP mode enabled, codes are readable through DevService")
	}

	client, err := newVerificationClient(cfg, conn, devStore)
	if err != nil {
		return nil, err
	}

	policy, err := newMethodPolicy(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.deps.HealthPolicyChecker = policy

	signer, err := newStateSigner(cfg)
	if err != nil {
		return nil, err
	}

	store, err := newTransientStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	var profiles flow.ProfileLookup
	var auditRepo auditrepo.Repository
	if conn != nil {
		profiles = userrepo.NewPostgresRepository(conn)
		auditRepo = auditrepo.NewPostgresRepository(conn)
	} else {
		profiles = userrepo.NewMemoryRepository()
	}

	emitters := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaProducer(cfg.FlowEventsKafkaBrokersList(), cfg.FlowEventsKafkaTopic); kp != nil {
		emitters = append(emitters, kp)
		a.closers = append(a.closers, kp)
	}
	auditLogger := audit.Multi{
		audit.NewLogger(auditRepo, interceptors.ClientIP),
		telemetry.NewAuditSink(emitters, interceptors.ClientIP),
	}

	creds := cfg.Credentials()
	if creds.IsZero() && cfg.VerificationBackend == config.BackendLocal {
		// The local backend ignores credentials, but the steps refuse to run without any.
		creds = domain.AppHashCredentials(config.BackendLocal)
	}
	initiation := flow.NewInitiationStep(flow.InitiationConfig{
		Credentials:    creds,
		Method:         cfg.Method(),
		PhoneAttribute: cfg.PhoneNumberAttribute,
	}, client, profiles, policy, nil)
	collection := flow.NewCollectionStep(flow.CollectionConfig{
		Credentials: creds,
		CodeHidden:  cfg.CodeHidden,
	}, client, nil)

	j := journey.New(initiation, collection, signer, store, auditLogger, cfg.FlowTTL())
	a.deps.Flow = journeyhandler.NewServer(j)
	return a, nil
}

func newVerificationClient(cfg *config.Config, conn *sql.DB, devStore *devotp.MemoryStore) (flow.VerificationClient, error) {
	switch cfg.VerificationBackend {
	case config.BackendSinch:
		return sinch.NewClient(cfg.SinchBaseURL, cfg.SinchPlatform), nil
	case config.BackendTwilio:
		return twilio.NewClient(cfg.TwilioVerifyServiceSID), nil
	case config.BackendLocal:
		var challenges mfarepo.Repository = mfarepo.NewMemoryRepository()
		if conn != nil {
			challenges = mfarepo.NewPostgresRepository(conn)
		}
		opts := []mfa.Option{mfa.WithTTL(cfg.FlowTTL())}
		var sender mfa.OTPSender
		if devStore != nil {
			opts = append(opts, mfa.WithDevOTPStore(devStore))
		} else {
			if cfg.SMSLocalAPIKey == "" {
				return nil, errors.New("mfa: SMS_LOCAL_API_KEY is required for the local backend unless OTP_RETURN_TO_CLIENT is set")
			}
			sender = sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
		}
		return mfa.NewBackend(challenges, security.NewHasher(cfg.BcryptCost), sender, opts...), nil
	default:
		return nil, fmt.Errorf("unknown verification backend %q", cfg.VerificationBackend)
	}
}

func newMethodPolicy(ctx context.Context, cfg *config.Config) (*engine.OPAEvaluator, error) {
	if cfg.MethodPolicyFile != "" {
		p, err := engine.NewOPAEvaluatorFromFile(ctx, cfg.MethodPolicyFile)
		if err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		return p, nil
	}
	p, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return p, nil
}

func newStateSigner(cfg *config.Config) (*security.StateSigner, error) {
	var (
		priv crypto.Signer
		pub  crypto.PublicKey
		err  error
	)
	if cfg.FlowStatePrivateKey != "" {
		priv, pub, err = security.LoadKeyPair(cfg.FlowStatePrivateKey, cfg.FlowStatePublicKey)
		if err != nil {
			return nil, fmt.Errorf("flow state key: %w", err)
		}
	} else {
		log.Println("security: FLOW_STATE_PRIVATE_KEY not set, signing flows with an ephemeral key")
		priv, err = security.GenerateEphemeralKey()
		if err != nil {
			return nil, fmt.Errorf("flow state key: %w", err)
		}
		pub = priv.Public()
	}
	return security.NewStateSigner(priv, pub, cfg.FlowStateIssuer, cfg.FlowStateAudience, cfg.FlowTTL()), nil
}

func newTransientStore(ctx context.Context, cfg *config.Config, a *app) (transient.Store, error) {
	if cfg.TransientStore != config.TransientRedis {
		return transient.NewMemoryStore(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.closers = append(a.closers, rdb)
	key, err := cfg.SealKey()
	if err != nil {
		return nil, err
	}
	return transient.NewRedisStore(rdb, key)
}
