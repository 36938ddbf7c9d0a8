package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/mailer"
	"grocery-marketplace-api/metrics"
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/statemachine"
	"grocery-marketplace-api/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const documentsFolder = "drivers/documents"

// ApplicationInput is the validated applicant profile. Password is only
// used when a guest registers an account with the application.
type ApplicationInput struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Password          string
	Address           string
	City              string
	State             string
	ZipCode           string
	LicenseExpiryDate string
	YearsOfExperience int
}

// UnifiedResult identifies what a unified registration created or used.
type UnifiedResult struct {
	UserID        uint `json:"userId"`
	ApplicationID uint `json:"driverId"`
}

// ApplicationQuery filters the admin listing.
type ApplicationQuery struct {
	Status models.ApplicationStatus
	Search string
	Page   int
	Limit  int
}

// DriverApplicationService runs the driver onboarding workflow.
type DriverApplicationService struct {
	db    *gorm.DB
	blobs storage.Store
	mail  mailer.Sender
	log   *zap.Logger
	now   func() time.Time
}

type DriverApplicationOption func(*DriverApplicationService)

// WithClock overrides the time source used for suspensions.
func WithClock(now func() time.Time) DriverApplicationOption {
	return func(s *DriverApplicationService) { s.now = now }
}

func NewDriverApplicationService(db *gorm.DB, blobs storage.Store, mail mailer.Sender, log *zap.Logger, opts ...DriverApplicationOption) *DriverApplicationService {
	s := &DriverApplicationService{
		db:    db,
		blobs: blobs,
		mail:  mail,
		log:   log.With(zap.String("service", "driver_applications")),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files an application for an existing account. Documents are
// uploaded one by one; if the record cannot be created they are discarded.
func (s *DriverApplicationService) Submit(ctx context.Context, id Identity, in ApplicationInput, files []storage.File) (*models.DriverApplication, error) {
	db := s.db.WithContext(ctx)

	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(db, user); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperror.BadRequest("Documents required")
	}

	docs, err := uploadAll(ctx, s.blobs, files, documentsFolder)
	if err != nil {
		discardUploads(ctx, s.blobs, docs, s.log)
		return nil, uploadError(err)
	}

	app := newApplication(user, in, docs)
	if err := db.Create(app).Error; err != nil {
		discardUploads(ctx, s.blobs, docs, s.log)
		return nil, fmt.Errorf("create driver application: %w", err)
	}

	metrics.RecordApplicationEvent("submitted")
	s.log.Info("driver application submitted",
		zap.Uint("application_id", app.ID),
		zap.Uint("user_id", user.ID),
		zap.Int("documents", len(docs)),
	)
	return app, nil
}

// SubmitUnified resolves or registers the applicant and creates the
// application in one transaction. Uploaded documents live outside the
// transaction, so on any failure they are deleted after the rollback and
// the original error is returned.
func (s *DriverApplicationService) SubmitUnified(ctx context.Context, who Applicant, in ApplicationInput, files []storage.File) (*UnifiedResult, error) {
	var (
		uploaded []models.Document
		result   UnifiedResult
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.resolveApplicant(ctx, tx, who, in)
		if err != nil {
			return err
		}

		if len(files) == 0 {
			return apperror.BadRequest("Documents are required")
		}
		uploaded, err = uploadAll(ctx, s.blobs, files, documentsFolder)
		if err != nil {
			return uploadError(err)
		}

		app := newApplication(user, in, uploaded)
		if err := tx.Create(app).Error; err != nil {
			return fmt.Errorf("create driver application: %w", err)
		}
		result = UnifiedResult{UserID: user.ID, ApplicationID: app.ID}
		return nil
	})
	if err != nil {
		if len(uploaded) > 0 {
			discardUploads(ctx, s.blobs, uploaded, s.log)
			metrics.RecordApplicationEvent("rolled_back")
		}
		return nil, err
	}

	metrics.RecordApplicationEvent("submitted")
	s.log.Info("driver registration completed",
		zap.Uint("application_id", result.ApplicationID),
		zap.Uint("user_id", result.UserID),
		zap.Bool("guest", isGuest(who)),
	)
	return &result, nil
}

func (s *DriverApplicationService) resolveApplicant(ctx context.Context, tx *gorm.DB, who Applicant, in ApplicationInput) (*models.User, error) {
	switch a := who.(type) {
	case LoggedIn:
		user, err := findUserByEmail(ctx, tx, a.Identity.Email)
		if err != nil {
			return nil, err
		}
		if err := checkEligibility(tx, user); err != nil {
			return nil, err
		}
		return user, nil

	case Guest:
		if in.Password == "" {
			return nil, apperror.BadRequest("Password is required")
		}
		var count int64
		if err := tx.Model(&models.User{}).
			Where("email = ? OR phone = ?", in.Email, in.Phone).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check existing account: %w", err)
		}
		if count > 0 {
			return nil, apperror.Conflict("Email or Phone already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Internal("Failed to hash password", err)
		}
		user := &models.User{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			Phone:        in.Phone,
			PasswordHash: string(hash),
			Role:         models.RoleCustomer,
			IsVerified:   false,
		}
		if err := tx.Create(user).Error; err != nil {
			return nil, fmt.Errorf("create guest account: %w", err)
		}
		return user, nil

	default:
		return nil, apperror.BadRequest("Unknown applicant")
	}
}

// checkEligibility enforces the role rules and the one-open-application
// invariant. A rejected application does not block a new one.
func checkEligibility(db *gorm.DB, user *models.User) error {
	switch user.Role {
	case models.RoleDriver:
		return apperror.BadRequest("You are already a driver")
	case models.RoleSupplier:
		return apperror.Forbidden("Supplier accounts cannot register as drivers. Use a different email.")
	}

	var existing models.DriverApplication
	err := db.Where("user_id = ? AND status IN ?", user.ID,
		[]models.ApplicationStatus{models.ApplicationPending, models.ApplicationApproved}).
		Order("created_at desc").Order("id desc").
		First(&existing).Error
	switch {
	case err == nil:
		return apperror.BadRequest("Request already %s", existing.Status)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check existing application: %w", err)
	}
}

// UpdateStatus decides a pending application. Approval and the role
// promotion commit together; the notification is sent after the commit
// and its failure does not undo the decision.
func (s *DriverApplicationService) UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus) (*models.DriverApplication, error) {
	app, err := s.find(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := statemachine.Applications.CanTransition(app.Status, status, statemachine.ActorAdmin); err != nil {
		return nil, apperror.BadRequest("%s", err.Error())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.DriverApplication{}).
			Where("id = ? AND status = ?", app.ID, app.Status).
			Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("update application status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict("Driver application was updated by someone else")
		}

		if status != models.ApplicationApproved {
			return nil
		}
		res = tx.Model(&models.User{}).Where("id = ?", app.UserID).Update("role", models.RoleDriver)
		if res.Error != nil {
			return fmt.Errorf("promote user to driver: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("Applicant account no longer exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	app.Status = status

	metrics.RecordApplicationEvent(string(status))
	s.log.Info("driver application decided",
		zap.Uint("application_id", app.ID),
		zap.String("status", string(status)),
	)

	if status == models.ApplicationApproved {
		s.notify(ctx, mailer.ToneSuccess, app.Email,
			"Congratulations! Your Driver Application is Approved",
			"Application Approved",
			fmt.Sprintf("Hello %s, your application has been approved. You can now log in and access the Driver Dashboard.", app.FirstName))
	} else {
		s.notify(ctx, mailer.ToneNotice, app.Email,
			"Update on your Driver Application",
			"Application Update",
			"Sorry, your application was not approved at this time.")
	}
	return app, nil
}

// notify sends a templated mail; failures are logged and counted only.
func (s *DriverApplicationService) notify(ctx context.Context, tone mailer.Tone, to, subject, banner, text string) {
	msg, err := mailer.Render(tone, to, subject, banner, text)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		metrics.RecordNotificationFailure()
		s.log.Warn("notification not sent", zap.String("to", to), zap.Error(err))
	}
}

// ToggleSuspension flips the suspension flag. Entering a suspension with a
// positive number of days sets SuspendedUntil; otherwise it is cleared.
func (s *DriverApplicationService) ToggleSuspension(ctx context.Context, id uint, days *int) (*models.DriverApplication, error) {
	if days != nil && *days < 0 {
		return nil, apperror.BadRequest("suspensionDays cannot be negative")
	}
	app, err := s.find(ctx, id, false)
	if err != nil {
		return nil, err
	}

	suspend := !app.IsSuspended
	var until *time.Time
	if suspend && days != nil && *days > 0 {
		t := s.now().Add(time.Duration(*days) * 24 * time.Hour)
		until = &t
	}

	err = s.db.WithContext(ctx).Model(app).Updates(map[string]any{
		"is_suspended":    suspend,
		"suspended_until": until,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("toggle suspension: %w", err)
	}
	app.IsSuspended = suspend
	app.SuspendedUntil = until

	if suspend {
		metrics.RecordApplicationEvent("suspended")
	} else {
		metrics.RecordApplicationEvent("unsuspended")
	}
	return app, nil
}

// LiftExpiredSuspensions ends every suspension whose end date has passed.
func (s *DriverApplicationService) LiftExpiredSuspensions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.DriverApplication{}).
		Where("is_suspended = ? AND suspended_until IS NOT NULL AND suspended_until <= ?", true, now.UTC()).
		Updates(map[string]any{"is_suspended": false, "suspended_until": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("lift expired suspensions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes the application together with the applicant's account,
// then deletes the uploaded documents best-effort.
func (s *DriverApplicationService) Delete(ctx context.Context, id uint) error {
	app, err := s.find(ctx, id, false)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.DriverApplication{}, app.ID).Error; err != nil {
			return fmt.Errorf("delete driver application: %w", err)
		}
		if err := tx.Delete(&models.User{}, app.UserID).Error; err != nil {
			return fmt.Errorf("delete applicant account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	failed := discardUploads(ctx, s.blobs, app.DocumentURL, s.log)
	metrics.RecordApplicationEvent("deleted")
	s.log.Info("driver application deleted",
		zap.Uint("application_id", app.ID),
		zap.Uint("user_id", app.UserID),
		zap.Int("documents", len(app.DocumentURL)),
		zap.Int("documents_not_deleted", len(failed)),
	)
	return nil
}

// Get returns one application with its applicant's public fields.
func (s *DriverApplicationService) Get(ctx context.Context, id uint) (*models.DriverApplication, error) {
	return s.find(ctx, id, true)
}

// GetMine returns the caller's most recent application.
func (s *DriverApplicationService) GetMine(ctx context.Context, id Identity) (*models.DriverApplication, error) {
	user, err := findUserByEmail(ctx, s.db, id.Email)
	if err != nil {
		return nil, err
	}
	var app models.DriverApplication
	err = s.db.WithContext(ctx).
		Preload("User", selectPublicUser).
		Where("user_id = ?", user.ID).
		Order("created_at desc").Order("id desc").
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("You have not applied as a driver")
		}
		return nil, fmt.Errorf("get my driver application: %w", err)
	}
	return &app, nil
}

// List returns a page of applications, newest first.
func (s *DriverApplicationService) List(ctx context.Context, q ApplicationQuery) (*Page[models.DriverApplication], error) {
	page, limit := normalizePage(q.Page, q.Limit)

	filter := func(db *gorm.DB) *gorm.DB {
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			like := containsPattern(search)
			db = db.Where(`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, like, like)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.DriverApplication{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count driver applications: %w", err)
	}

	apps := []models.DriverApplication{}
	err := s.db.WithContext(ctx).
		Scopes(filter).
		Preload("User", selectPublicUser).
		Order("created_at desc").Order("id desc").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list driver applications: %w", err)
	}
	return &Page[models.DriverApplication]{Data: apps, Meta: newMeta(page, limit, total)}, nil
}

func (s *DriverApplicationService) find(ctx context.Context, id uint, withUser bool) (*models.DriverApplication, error) {
	q := s.db.WithContext(ctx)
	if withUser {
		q = q.Preload("User", selectPublicUser)
	}
	var app models.DriverApplication
	if err := q.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Driver application not found")
		}
		return nil, fmt.Errorf("get driver application: %w", err)
	}
	return &app, nil
}

func newApplication(user *models.User, in ApplicationInput, docs []models.Document) *models.DriverApplication {
	email := in.Email
	if email == "" {
		email = user.Email
	}
	return &models.DriverApplication{
		UserID:            user.ID,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             email,
		Phone:             in.Phone,
		Address:           in.Address,
		City:              in.City,
		State:             in.State,
		ZipCode:           in.ZipCode,
		LicenseExpiryDate: in.LicenseExpiryDate,
		YearsOfExperience: in.YearsOfExperience,
		DocumentURL:       docs,
		Status:            models.ApplicationPending,
	}
}

func selectPublicUser(db *gorm.DB) *gorm.DB {
	return db.Select(models.PublicUserColumns)
}

func uploadError(err error) error {
	if errors.Is(err, storage.ErrInvalidFile) {
		return apperror.BadRequest("%s", err.Error())
	}
	return apperror.Internal("Failed to upload documents", err)
}

func isGuest(a Applicant) bool {
	_, ok := a.(Guest)
	return ok
}
