package repos

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vineyard-api/config"
	"vineyard-api/database"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/infra/imagestore"
	"vineyard-api/internal/platform/logger"
)

type fixture struct {
	db          *gorm.DB
	store       *imagestore.Store
	vines       *VineRepo
	locations   *VineLocationRepo
	issues      *IssueRepo
	types       *MaintenanceTypeRepo
	activities  *MaintenanceActivityRepo
	users       *UserRepo
	inventory   *InventoryRepo
	reporter    *users.User
	otherPerson *users.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	dsn := "file:" + filepath.Join(t.TempDir(), "repos.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	d, err := database.Open(dsn, config.DBConfig{}, log)
	require.NoError(t, err)
	require.NoError(t, d.Migrate())
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	store, err := imagestore.New(filepath.Join(t.TempDir(), "uploads"), imagestore.DefaultMaxBytes, log)
	require.NoError(t, err)

	db := d.DB()
	f := &fixture{
		db:         db,
		store:      store,
		vines:      NewVineRepo(db, log),
		locations:  NewVineLocationRepo(db, log),
		issues:     NewIssueRepo(db, store, log),
		types:      NewMaintenanceTypeRepo(db, log),
		activities: NewMaintenanceActivityRepo(db, log),
		users:      NewUserRepo(db, log),
	}
	f.inventory = NewInventoryRepo(db, f.vines, f.locations, log)

	f.reporter, err = f.users.Create(context.Background(), nil, &users.User{UserName: "ana", FullName: "Ana Field", IsActive: true})
	require.NoError(t, err)
	f.otherPerson, err = f.users.Create(context.Background(), nil, &users.User{UserName: "ben", IsActive: true})
	require.NoError(t, err)
	return f
}

func str(s string) *string { return &s }

func num(i int) *int { return &i }

func id(v uint) *uint { return &v }

func yes() *bool {
	b := true
	return &b
}

func no() *bool {
	b := false
	return &b
}

func position(vineyard, field string, row, spot int) vines.LocationInput {
	return vines.LocationInput{VineyardName: str(vineyard), FieldName: str(field), RowNumber: num(row), SpotNumber: num(spot)}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{R: 200, G: 30, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngBase64(t *testing.T) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
}
