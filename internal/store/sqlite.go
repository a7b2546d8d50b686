package store

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/go-ssohub/ssohub/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.AuthorizationCode{},
		&models.AccessToken{},
		&models.AllowedOrigin{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db}

	// Seed default data
	if err := store.seedData(); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return store, nil
}

// generateRandomPassword generates a random password of specified length
func generateRandomPassword(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// Use base64 URL encoding to get a safe, printable password
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

func (s *Store) seedData() error {
	// Create default admin user if no users exist
	var userCount int64
	s.db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		password, err := generateRandomPassword(16)
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &models.User{
			ID:           uuid.New().String(),
			Username:     "admin",
			Email:        "admin@localhost",
			PasswordHash: string(hash),
			Department:   models.OrgFieldUnset,
			Team:         models.OrgFieldUnset,
			Supervisor:   models.OrgFieldUnset,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
		log.Printf("Created default user: admin@localhost / %s (role: admin)", password)
	}

	return nil
}

// User operations

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

func (s *Store) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

func (s *Store) DeleteUser(id string) error {
	return s.db.Delete(&models.User{}, "id = ?", id).Error
}

// ListUsers returns a page of users, optionally filtered by a search keyword
// (username, email, or name) and by role.
func (s *Store) ListUsers(
	params PaginationParams,
	role string,
) ([]models.User, PaginationResult, error) {
	query := s.db.Model(&models.User{})

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where(
			"username LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var users []models.User
	err := query.
		Order("created_at DESC").
		Limit(params.PageSize).
		Offset((params.Page - 1) * params.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return users, CalculatePagination(total, params.Page, params.PageSize), nil
}

// CountUsersByField returns the number of users matching a single column value.
func (s *Store) CountUsersByField(field string, value any) (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Where(field+" = ?", value).Count(&count).Error
	return count, err
}

// Client operations

func (s *Store) GetClient(clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ListActiveClients returns every active client. Used by the origin policy
// engine to derive CORS origins from redirect URIs.
func (s *Store) ListActiveClients() ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.Where("is_active = ?", true).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// ListClients returns a page of clients, optionally filtered by a search
// keyword (client_id or name) and by active state.
func (s *Store) ListClients(
	params PaginationParams,
	active *bool,
) ([]models.Client, PaginationResult, error) {
	query := s.db.Model(&models.Client{})

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("client_id LIKE ? OR name LIKE ?", pattern, pattern)
	}
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var clients []models.Client
	err := query.
		Order("created_at DESC").
		Limit(params.PageSize).
		Offset((params.Page - 1) * params.PageSize).
		Find(&clients).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return clients, CalculatePagination(total, params.Page, params.PageSize), nil
}

func (s *Store) CreateClient(client *models.Client) error {
	return s.db.Create(client).Error
}

func (s *Store) UpdateClient(client *models.Client) error {
	return s.db.Save(client).Error
}

func (s *Store) DeleteClient(clientID string) error {
	return s.db.Where("client_id = ?", clientID).Delete(&models.Client{}).Error
}

func (s *Store) CountClientsByActive(active bool) (int64, error) {
	var count int64
	err := s.db.Model(&models.Client{}).Where("is_active = ?", active).Count(&count).Error
	return count, err
}

// Authorization code operations

func (s *Store) CreateAuthorizationCode(code *models.AuthorizationCode) error {
	return s.db.Create(code).Error
}

// GetLiveAuthorizationCode looks up an unexpired code bound to the client.
func (s *Store) GetLiveAuthorizationCode(
	code, clientID string,
) (*models.AuthorizationCode, error) {
	var ac models.AuthorizationCode
	err := s.db.
		Where("code = ? AND client_id = ? AND expires_at > ?", code, clientID, time.Now()).
		First(&ac).Error
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

// ConsumeAuthorizationCode deletes the code row within tx, enforcing
// single-use semantics: the delete is atomic, so a concurrent redemption of
// the same code sees zero rows affected and fails.
func (s *Store) ConsumeAuthorizationCode(tx *gorm.DB, code string) error {
	res := tx.Where("code = ?", code).Delete(&models.AuthorizationCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAuthCodeAlreadyUsed
	}
	return nil
}

func (s *Store) DeleteExpiredAuthorizationCodes() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.AuthorizationCode{}).Error
}

// Access token operations

func (s *Store) CreateAccessToken(token *models.AccessToken) error {
	return s.db.Create(token).Error
}

// GetLiveAccessToken returns the ledger row for a token hash only when it is
// still live. Expired rows are treated as absent; strict verification relies
// on this filter rather than on a sweep.
func (s *Store) GetLiveAccessToken(tokenHash string) (*models.AccessToken, error) {
	var t models.AccessToken
	err := s.db.
		Where("token_hash = ? AND expires_at > ?", tokenHash, time.Now()).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteExpiredTokens() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.AccessToken{}).Error
}

// CountLiveAccessTokens counts ledger rows that have not expired yet.
func (s *Store) CountLiveAccessTokens() (int64, error) {
	var count int64
	err := s.db.Model(&models.AccessToken{}).
		Where("expires_at > ?", time.Now()).
		Count(&count).Error
	return count, err
}

// Allowed origin operations

func (s *Store) GetOriginByID(id uint) (*models.AllowedOrigin, error) {
	var origin models.AllowedOrigin
	if err := s.db.Where("id = ?", id).First(&origin).Error; err != nil {
		return nil, err
	}
	return &origin, nil
}

func (s *Store) GetOriginByValue(origin string) (*models.AllowedOrigin, error) {
	var row models.AllowedOrigin
	if err := s.db.Where("origin = ?", origin).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListOrigins returns every allow-list row, manual entries first.
func (s *Store) ListOrigins() ([]models.AllowedOrigin, error) {
	var origins []models.AllowedOrigin
	err := s.db.
		Order("auto_added ASC, created_at DESC").
		Find(&origins).Error
	if err != nil {
		return nil, err
	}
	return origins, nil
}

// ListActiveOriginValues returns the active allow-list origins as strings.
func (s *Store) ListActiveOriginValues() ([]string, error) {
	var values []string
	err := s.db.Model(&models.AllowedOrigin{}).
		Where("is_active = ?", true).
		Pluck("origin", &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ListOriginsBySourceClient returns the auto-added origins bound to a client.
func (s *Store) ListOriginsBySourceClient(clientID string) ([]models.AllowedOrigin, error) {
	var origins []models.AllowedOrigin
	err := s.db.
		Where("source_client_id = ? AND auto_added = ?", clientID, true).
		Find(&origins).Error
	if err != nil {
		return nil, err
	}
	return origins, nil
}

func (s *Store) CreateOrigin(origin *models.AllowedOrigin) error {
	return s.db.Create(origin).Error
}

func (s *Store) UpdateOrigin(origin *models.AllowedOrigin) error {
	return s.db.Save(origin).Error
}

func (s *Store) DeleteOrigin(id uint) error {
	return s.db.Delete(&models.AllowedOrigin{}, id).Error
}

// Audit log operations

func (s *Store) CreateAuditLog(entry *models.AuditLog) error {
	return s.db.Create(entry).Error
}

// CreateAuditLogBatch writes a batch of audit entries in one insert.
func (s *Store) CreateAuditLogBatch(entries []*models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Create(entries).Error
}

// DeleteOldAuditLogs removes entries older than the cutoff and reports how
// many rows were deleted.
func (s *Store) DeleteOldAuditLogs(cutoff time.Time) (int64, error) {
	res := s.db.Where("event_time < ?", cutoff).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}

// ListAuditLogs returns a page of audit entries matching the filters,
// newest first.
func (s *Store) ListAuditLogs(
	filters AuditFilters,
	params PaginationParams,
) ([]models.AuditLog, PaginationResult, error) {
	query := filters.Apply(s.db.Model(&models.AuditLog{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var logs []models.AuditLog
	err := query.
		Order("event_time DESC").
		Limit(params.PageSize).
		Offset((params.Page - 1) * params.PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return logs, CalculatePagination(total, params.Page, params.PageSize), nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}
