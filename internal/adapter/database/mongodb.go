package database

import (
	"context"
	"fmt"

	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/process"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type MongoDBDatabase struct {
	config *config.DatabaseConfig
	bin    string
	runner process.Runner
	logger Logger
}

func NewMongoDB(cfg *config.DatabaseConfig, bin string, runner process.Runner, logger Logger) *MongoDBDatabase {
	return &MongoDBDatabase{
		config: cfg,
		bin:    bin,
		runner: runner,
		logger: logger,
	}
}

// Dump runs mongodump against outputDir. mongodump writes the collections
// into outputDir/<database>.
func (m *MongoDBDatabase) Dump(ctx context.Context, outputDir string) error {
	m.logger.Infof("[%s] Dumping %s into %s", m.config.Database, m.config.Address(), outputDir)

	err := m.runner.Run(ctx, process.Command{
		Name: m.bin,
		Args: m.args(outputDir),
	}, func(line string) {
		m.logger.Infof("[mongodump] %s", line)
	}, func(line string) {
		m.logger.Errorf("[mongodump] %s", line)
	})
	if err != nil {
		return fmt.Errorf("mongodump failed: %w", err)
	}

	m.logger.Infof("[%s] Dump completed", m.config.Database)
	return nil
}

func (m *MongoDBDatabase) args(outputDir string) []string {
	args := []string{
		"--host", m.config.Address(),
		"--db", m.config.Database,
		"--out", outputDir,
	}

	if m.config.HasCredentials() {
		args = append(args,
			"--username", m.config.Username,
			"--password", m.config.Password,
		)
		if m.config.AuthDatabase != "" {
			args = append(args, "--authenticationDatabase", m.config.AuthDatabase)
		}
	}

	return args
}

func (m *MongoDBDatabase) GetName() string {
	return m.config.Database
}

func (m *MongoDBDatabase) GetType() string {
	return "mongodb"
}
