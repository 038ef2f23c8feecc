package postback

import (
	"context"
	"database/sql"

	"github.com/trackforge/s2s/internal/models"
)

// SettingsTemplates reads the global default template from the settings store.
type SettingsTemplates struct {
	DB *sql.DB
}

func (s SettingsTemplates) PostbackTemplate(ctx context.Context) (string, error) {
	return models.GetSetting(ctx, s.DB, models.SettingPostbackTemplate)
}

// StoreAttempts persists attempt records through the postback log store.
type StoreAttempts struct {
	DB *sql.DB
}

func (s StoreAttempts) LogAttempt(ctx context.Context, log *models.PostbackLog) error {
	return models.InsertPostbackLog(ctx, s.DB, log)
}

// NewStoreFirer builds the production Firer wired to the database.
func NewStoreFirer(db *sql.DB) *Firer {
	return NewFirer(SettingsTemplates{DB: db}, StoreAttempts{DB: db}, nil)
}
