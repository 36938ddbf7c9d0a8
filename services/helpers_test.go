package services

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sync/atomic"
	"testing"

	"grocery-marketplace-api/config"
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

	unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	dbSeq      atomic.Int64
)

// newTestDB opens a private in-memory database with every table migrated.
// Each call gets its own database, even within one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", unsafeName.ReplaceAllString(t.Name(), "_"), dbSeq.Add(1))
	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Phone:        "+1-" + email,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedApplication(t *testing.T, db *gorm.DB, user *models.User, firstName string, status models.ApplicationStatus) *models.DriverApplication {
	t.Helper()
	app := &models.DriverApplication{
		UserID:    user.ID,
		FirstName: firstName,
		Email:     user.Email,
		Status:    status,
		DocumentURL: []models.Document{
			{PublicID: "drivers/documents/" + firstName + "-license.png", URL: "/uploads/drivers/documents/" + firstName + "-license.png"},
		},
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func seedCatalog(t *testing.T, db *gorm.DB, supplier *models.User, region string, price float64, stock int) *models.Product {
	t.Helper()
	var category models.Category
	require.NoError(t, db.Where(models.Category{Name: "Cat " + region, Region: region}).FirstOrCreate(&category).Error)
	product := &models.Product{
		SupplierID: supplier.ID,
		CategoryID: category.ID,
		Name:       fmt.Sprintf("Product %s %.2f", region, price),
		Price:      price,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func fileOf(name string, data []byte) storage.File {
	return storage.File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// failOn makes every statement of kind ("create" or "update") touching
// table fail.
func failOn(t *testing.T, db *gorm.DB, kind, table string) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(fmt.Errorf("injected %s failure on %s", kind, table))
		}
	}
	name := "test:fail_" + kind + "_" + table
	switch kind {
	case "create":
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, fail))
	case "update":
		require.NoError(t, db.Callback().Update().Before("gorm:update").Register(name, fail))
	default:
		t.Fatalf("unknown statement kind %q", kind)
	}
}

// beforeCreate runs fn once, inside the statement, just before the next
// insert into table.
func beforeCreate(t *testing.T, db *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	fired := false
	hook := func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		fn(tx.Session(&gorm.Session{NewDB: true}))
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:before_create_"+table, hook))
}
