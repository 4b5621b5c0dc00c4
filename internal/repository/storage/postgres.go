package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Postgres struct {
	Connection *gorm.DB
}

// NewPostgres - opens the database. TranslateError makes unique violations surface as gorm.ErrDuplicatedKey.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("can't get database handle: %w", err)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Postgres{Connection: conn}, nil
}

// Init - creates the tables and indexes of the given models.
func (that *Postgres) Init(ctx context.Context, models ...any) error {
	if err := that.Connection.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("can't migrate tables: %w", err)
	}

	return nil
}

func (that *Postgres) Close() error {
	sqlDB, err := that.Connection.DB()
	if err != nil {
		return fmt.Errorf("can't get database handle: %w", err)
	}

	return sqlDB.Close()
}
