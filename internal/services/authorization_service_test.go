package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/infrastructure/auth"
	"github.com/you/careauth/internal/infrastructure/repositories"
	"github.com/you/careauth/internal/logging"
	"github.com/you/careauth/internal/mocks"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// authzDeps holds the collaborators of an AuthorizationService under test
type authzDeps struct {
	repo     domain.AuthorizationRepository
	patients *mocks.MockPatientRepository
	issuer   *mocks.MockCodeIssuer
	audit    *mocks.MockAuditLogger
	clock    *mocks.FakeClock
	locker   *mocks.MockPairLocker
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	// every pooled connection to :memory: would otherwise see its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func testPatient() *domain.Patient {
	return &domain.Patient{ID: 2, FirstName: "Jean", LastName: "Dupont", Phone: "0700000000"}
}

// createAuthorizationServiceForTest creates an AuthorizationService over an in-memory database
func createAuthorizationServiceForTest(t *testing.T, config AuthorizationConfig) (domain.AuthorizationService, *authzDeps) {
	t.Helper()

	clock := mocks.NewFakeClock(testStart)
	deps := &authzDeps{
		repo:     repositories.NewAuthorizationRepository(setupTestDB(t)),
		patients: mocks.NewMockPatientRepository().WithPatients(testPatient()),
		issuer:   mocks.NewMockCodeIssuer(clock),
		audit:    mocks.NewMockAuditLogger(),
		clock:    clock,
		locker:   mocks.NewMockPairLocker(),
	}

	svc := NewAuthorizationService(deps.repo, deps.patients, deps.locker, deps.issuer, mocks.NewMockCodeHasher(),
		deps.audit, clock, logging.Discard(), config)
	return svc, deps
}

func TestAuthorizationService_RequestAuthorization(t *testing.T) {
	tests := []struct {
		name           string
		phone          string
		setup          func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps)
		expectedError  error
		expectedStatus domain.AuthorizationStatus
		expectedCodes  int
	}{
		{
			name:           "new request",
			phone:          "0700000000",
			expectedStatus: domain.AuthorizationPending,
			expectedCodes:  1,
		},
		{
			name:          "unknown patient",
			phone:         "0799999999",
			expectedError: domain.ErrPatientNotFound,
		},
		{
			name:          "empty phone",
			phone:         "",
			expectedError: domain.ErrPhoneEmpty,
		},
		{
			name:  "pending request blocks a new one",
			phone: "0700000000",
			setup: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps) {
				_, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")
				require.NoError(t, err)
				deps.clock.Advance(14 * time.Minute)
			},
			expectedError:  domain.ErrAuthorizationPending,
			expectedStatus: domain.AuthorizationPending,
			expectedCodes:  1,
		},
		{
			name:  "expired pending request is replaced",
			phone: "0700000000",
			setup: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps) {
				_, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")
				require.NoError(t, err)
				deps.clock.Advance(16 * time.Minute)
			},
			expectedStatus: domain.AuthorizationPending,
			expectedCodes:  2,
		},
		{
			name:  "approved request is returned",
			phone: "0700000000",
			setup: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps) {
				res, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")
				require.NoError(t, err)
				_, err = svc.VerifyAuthorizationCode(context.Background(), 1, res.AuthorizationID, "4821")
				require.NoError(t, err)
			},
			expectedStatus: domain.AuthorizationApproved,
			expectedCodes:  1,
		},
		{
			name:  "pair lock unavailable",
			phone: "0700000000",
			setup: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps) {
				deps.locker.LockFunc = func(ctx context.Context, doctorID, patientID uint) (func(), error) {
					return nil, domain.ErrPairLocked
				}
			},
			expectedError: domain.ErrPairLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
			if tt.setup != nil {
				tt.setup(t, svc, deps)
			}

			result, err := svc.RequestAuthorization(context.Background(), 1, tt.phone)

			require.NotNil(t, result, "a result is returned on every path")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.False(t, result.Success)
				assert.Equal(t, domain.UserMessage(tt.expectedError), result.Message)
			} else {
				require.NoError(t, err)
				assert.True(t, result.Success)
				assert.NotEmpty(t, result.AuthorizationID)
				assert.Equal(t, uint(2), result.PatientID)
			}
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedCodes, deps.issuer.AuthorizationCalls())
		})
	}
}

func TestAuthorizationService_RequestMarksStaleRequestExpired(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
	ctx := context.Background()

	first, err := svc.RequestAuthorization(ctx, 1, "0700000000")
	require.NoError(t, err)
	deps.clock.Advance(16 * time.Minute)

	second, err := svc.RequestAuthorization(ctx, 1, "0700000000")
	require.NoError(t, err)
	assert.NotEqual(t, first.AuthorizationID, second.AuthorizationID)

	stale, err := deps.repo.FindByID(ctx, first.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorizationExpired, stale.Status)
	assert.Contains(t, deps.audit.EventTypes(), domain.AuthorizationExpiredEvent)
}

func TestAuthorizationService_StoresOnlyCodeHash(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
	ctx := context.Background()

	res, err := svc.RequestAuthorization(ctx, 1, "0700000000")
	require.NoError(t, err)

	stored, err := deps.repo.FindByID(ctx, res.AuthorizationID)
	require.NoError(t, err)
	assert.NotEqual(t, "4821", stored.CodeHash)
	assert.True(t, testStart.Equal(stored.RequestDate))
	assert.True(t, testStart.Add(15*time.Minute).Equal(stored.CodeExpiryDate))
}

func TestAuthorizationService_VerifyAuthorizationCode(t *testing.T) {
	tests := []struct {
		name           string
		config         AuthorizationConfig
		act            func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error)
		expectedError  error
		expectedStatus domain.AuthorizationStatus
		expectedEvent  domain.AuditEventType
	}{
		{
			name: "correct code approves",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "4821")
			},
			expectedStatus: domain.AuthorizationApproved,
			expectedEvent:  domain.AuthorizationApprovedEvent,
		},
		{
			name: "wrong code keeps request pending",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "0000")
			},
			expectedError:  domain.ErrCodeInvalid,
			expectedStatus: domain.AuthorizationPending,
			expectedEvent:  domain.AuthorizationFailedEvent,
		},
		{
			name: "expired code",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				deps.clock.Advance(15*time.Minute + time.Second)
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "4821")
			},
			expectedError:  domain.ErrCodeExpired,
			expectedStatus: domain.AuthorizationExpired,
			expectedEvent:  domain.AuthorizationExpiredEvent,
		},
		{
			name: "code valid at the expiry instant",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				deps.clock.Advance(15 * time.Minute)
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "4821")
			},
			expectedStatus: domain.AuthorizationApproved,
			expectedEvent:  domain.AuthorizationApprovedEvent,
		},
		{
			name:   "attempt cap rejects the request",
			config: AuthorizationConfig{MaxAttempts: 2},
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				_, err := svc.VerifyAuthorizationCode(context.Background(), 1, id, "0000")
				require.ErrorIs(t, err, domain.ErrCodeInvalid)
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "1111")
			},
			expectedError:  domain.ErrTooManyAttempts,
			expectedStatus: domain.AuthorizationRejected,
			expectedEvent:  domain.AuthorizationRejectedEvent,
		},
		{
			name:   "rejected request stays closed",
			config: AuthorizationConfig{MaxAttempts: 1},
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				_, err := svc.VerifyAuthorizationCode(context.Background(), 1, id, "0000")
				require.ErrorIs(t, err, domain.ErrTooManyAttempts)
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "4821")
			},
			expectedError:  domain.ErrAuthorizationClosed,
			expectedStatus: domain.AuthorizationRejected,
			expectedEvent:  domain.AuthorizationRejectedEvent,
		},
		{
			name: "approved request verifies idempotently",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				_, err := svc.VerifyAuthorizationCode(context.Background(), 1, id, "4821")
				require.NoError(t, err)
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, "0000")
			},
			expectedStatus: domain.AuthorizationApproved,
			expectedEvent:  domain.AuthorizationApprovedEvent,
		},
		{
			name: "padded code is rejected",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				return svc.VerifyAuthorizationCode(context.Background(), 1, id, " 4821 ")
			},
			expectedError:  domain.ErrCodeInvalid,
			expectedStatus: domain.AuthorizationPending,
			expectedEvent:  domain.AuthorizationFailedEvent,
		},
		{
			name: "another doctor cannot approve",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				return svc.VerifyAuthorizationCode(context.Background(), 7, id, "4821")
			},
			expectedError: domain.ErrAuthorizationNotFound,
			expectedEvent: domain.AuthorizationRequestedEvent,
		},
		{
			name: "unknown request",
			act: func(t *testing.T, svc domain.AuthorizationService, deps *authzDeps, id string) (*domain.AuthorizationResult, error) {
				return svc.VerifyAuthorizationCode(context.Background(), 1, "does-not-exist", "4821")
			},
			expectedError: domain.ErrAuthorizationNotFound,
			expectedEvent: domain.AuthorizationRequestedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := createAuthorizationServiceForTest(t, tt.config)
			requested, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")
			require.NoError(t, err)

			result, err := tt.act(t, svc, deps, requested.AuthorizationID)

			require.NotNil(t, result)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.False(t, result.Success)
			} else {
				require.NoError(t, err)
				assert.True(t, result.Success)
				assert.Equal(t, uint(2), result.PatientID)
			}
			assert.Equal(t, tt.expectedStatus, result.Status)

			events := deps.audit.EventTypes()
			assert.Equal(t, tt.expectedEvent, events[len(events)-1])
		})
	}
}

func TestAuthorizationService_ForeignDoctorLeavesRequestUntouched(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{MaxAttempts: 1})
	ctx := context.Background()
	res, err := svc.RequestAuthorization(ctx, 1, "0700000000")
	require.NoError(t, err)

	_, err = svc.VerifyAuthorizationCode(ctx, 7, res.AuthorizationID, "0000")
	require.ErrorIs(t, err, domain.ErrAuthorizationNotFound)

	stored, err := deps.repo.FindByID(ctx, res.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Attempts)
	assert.Equal(t, domain.AuthorizationPending, stored.Status)

	ok, err := svc.CheckAuthorization(ctx, 7, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizationService_CodeSentOnlyAfterStore(t *testing.T) {
	t.Run("stored request is texted", func(t *testing.T) {
		svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})

		_, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")

		require.NoError(t, err)
		assert.Equal(t, 1, deps.issuer.AuthorizationSends())
		assert.Equal(t, "0700000000", deps.issuer.LastPhone())
	})

	t.Run("failed store sends nothing", func(t *testing.T) {
		_, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
		failing := mocks.NewMockAuthorizationRepository()
		failing.CreateFunc = func(ctx context.Context, req *domain.AuthorizationRequest) error {
			return errors.New("disk full")
		}
		svc := NewAuthorizationService(failing, deps.patients, deps.locker, deps.issuer, mocks.NewMockCodeHasher(),
			deps.audit, deps.clock, logging.Discard(), AuthorizationConfig{})

		result, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")

		require.Error(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, deps.issuer.AuthorizationCalls())
		assert.Equal(t, 0, deps.issuer.AuthorizationSends(), "the patient must not receive a code that was never stored")
	})

	t.Run("failed hash sends nothing", func(t *testing.T) {
		_, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
		hasher := mocks.NewMockCodeHasher()
		hasher.HashFunc = func(code string) (string, error) { return "", errors.New("entropy exhausted") }
		svc := NewAuthorizationService(deps.repo, deps.patients, deps.locker, deps.issuer, hasher,
			deps.audit, deps.clock, logging.Discard(), AuthorizationConfig{})

		_, err := svc.RequestAuthorization(context.Background(), 1, "0700000000")

		require.Error(t, err)
		assert.Equal(t, 0, deps.issuer.AuthorizationSends())
	})
}

func TestAuthorizationService_AttemptsArePersisted(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
	ctx := context.Background()
	res, err := svc.RequestAuthorization(ctx, 1, "0700000000")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.VerifyAuthorizationCode(ctx, 1, res.AuthorizationID, "0000")
		require.ErrorIs(t, err, domain.ErrCodeInvalid)
	}

	stored, err := deps.repo.FindByID(ctx, res.AuthorizationID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
	assert.Equal(t, domain.AuthorizationPending, stored.Status, "without a cap the request stays pending")
}

func TestAuthorizationService_GetAuthorizedPatients(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
	ctx := context.Background()

	second := &domain.Patient{ID: 3, FirstName: "Marie", LastName: "Curie", Phone: "0700000001"}
	removed := &domain.Patient{ID: 4, FirstName: "Gone", Phone: "0700000002"}
	deps.patients.WithPatients(testPatient(), second, removed)

	for _, phone := range []string{"0700000001", "0700000000", "0700000002"} {
		res, err := svc.RequestAuthorization(ctx, 1, phone)
		require.NoError(t, err)
		_, err = svc.VerifyAuthorizationCode(ctx, 1, res.AuthorizationID, "4821")
		require.NoError(t, err)
		deps.clock.Advance(time.Minute)
	}
	_, err := svc.RequestAuthorization(ctx, 9, "0700000000")
	require.NoError(t, err)

	deps.patients.WithPatients(testPatient(), second)

	patients, err := svc.GetAuthorizedPatients(ctx, 1)
	require.NoError(t, err)
	require.Len(t, patients, 2, "missing patients are skipped")
	assert.Equal(t, uint(3), patients[0].ID)
	assert.Equal(t, uint(2), patients[1].ID)

	none, err := svc.GetAuthorizedPatients(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, none, "pending requests do not grant access")
}

func TestAuthorizationService_CollaboratorFailures(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
	ctx := context.Background()

	deps.patients.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Patient, error) {
		return nil, errors.New("connection reset")
	}
	result, err := svc.RequestAuthorization(ctx, 1, "0700000000")
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "an unexpected error occurred", result.Message)

	failing := mocks.NewMockAuthorizationRepository()
	failing.ExistsApprovedFunc = func(ctx context.Context, doctorID, patientID uint) (bool, error) {
		return false, errors.New("connection reset")
	}
	failing.ListApprovedByDoctorFunc = func(ctx context.Context, doctorID uint) ([]*domain.AuthorizationRequest, error) {
		return nil, errors.New("connection reset")
	}
	svc = NewAuthorizationService(failing, deps.patients, deps.locker, deps.issuer, mocks.NewMockCodeHasher(),
		deps.audit, deps.clock, logging.Discard(), AuthorizationConfig{})

	ok, err := svc.CheckAuthorization(ctx, 1, 2)
	assert.Error(t, err)
	assert.False(t, ok)

	_, err = svc.GetAuthorizedPatients(ctx, 1)
	assert.Error(t, err)
}

func TestAuthorizationService_ConcurrentRequestsCreateOnePending(t *testing.T) {
	svc, deps := createAuthorizationServiceForTest(t, AuthorizationConfig{})
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RequestAuthorization(ctx, 1, "0700000000")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAuthorizationPending):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 7, conflicts)
	assert.Equal(t, 1, deps.issuer.AuthorizationCalls())
}

// TestAuthorizationWorkflow_Scenario runs the doctor/patient walkthrough over
// SQLite, a Redis pair lock and bcrypt hashing.
func TestAuthorizationWorkflow_Scenario(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db := setupTestDB(t)
	patients := repositories.NewPatientRepository(db)
	ctx := context.Background()
	patient := &domain.Patient{FirstName: "Jean", LastName: "Dupont", Phone: "0700000000"}
	require.NoError(t, patients.Create(ctx, patient))

	clock := mocks.NewFakeClock(testStart)
	sms := mocks.NewMockNotificationService()
	issuer := NewCodeIssuer(sms, clock, logging.Discard(), CodeIssuerConfig{
		AuthorizationCodeLength: 4,
		AuthorizationTTL:        15 * time.Minute,
	})
	svc := NewAuthorizationService(
		repositories.NewAuthorizationRepository(db),
		patients,
		repositories.NewRedisPairLocker(client, 10*time.Second),
		issuer,
		auth.NewCodeHasherWithCost(bcrypt.MinCost),
		mocks.NewMockAuditLogger(),
		clock,
		logging.Discard(),
		AuthorizationConfig{},
	)
	const doctorID = 1

	first, err := svc.RequestAuthorization(ctx, doctorID, "0700000000")
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Len(t, sms.Sent(), 1)
	code := extractCode(sms.Sent()[0].Message, 4)

	dup, err := svc.RequestAuthorization(ctx, doctorID, "0700000000")
	assert.ErrorIs(t, err, domain.ErrAuthorizationPending)
	assert.False(t, dup.Success)

	verified, err := svc.VerifyAuthorizationCode(ctx, doctorID, first.AuthorizationID, code)
	require.NoError(t, err)
	assert.True(t, verified.Success)
	assert.Equal(t, patient.ID, verified.PatientID)

	ok, err := svc.CheckAuthorization(ctx, doctorID, patient.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second doctor lets the code lapse.
	late, err := svc.RequestAuthorization(ctx, doctorID+1, "0700000000")
	require.NoError(t, err)
	lateCode := extractCode(sms.Sent()[1].Message, 4)
	clock.Advance(16 * time.Minute)

	expired, err := svc.VerifyAuthorizationCode(ctx, doctorID+1, late.AuthorizationID, lateCode)
	assert.ErrorIs(t, err, domain.ErrCodeExpired)
	assert.Equal(t, domain.AuthorizationExpired, expired.Status)

	ok, err = svc.CheckAuthorization(ctx, doctorID+1, patient.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, mr.Exists("authz:lock:1:1"), "pair lock must be released")
}

// extractCode returns the first run of exactly n digits in an SMS body
func extractCode(message string, n int) string {
	run := 0
	for i := 0; i < len(message); i++ {
		if message[i] >= '0' && message[i] <= '9' {
			run++
			if run == n && (i+1 == len(message) || message[i+1] < '0' || message[i+1] > '9') {
				return message[i-n+1 : i+1]
			}
			continue
		}
		run = 0
	}
	return ""
}
