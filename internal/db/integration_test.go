//go:build integration

package db

import (
	"os"
	"strconv"
	"testing"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/models"
)

// mysqlConfig reads connection settings for a live MySQL server from the
// environment. Tests skip when CASEBOT_TEST_MYSQL_HOST is unset.
func mysqlConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	host := os.Getenv("CASEBOT_TEST_MYSQL_HOST")
	if host == "" {
		t.Skip("CASEBOT_TEST_MYSQL_HOST not set")
	}
	port := 3306
	if p := os.Getenv("CASEBOT_TEST_MYSQL_PORT"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			t.Fatalf("CASEBOT_TEST_MYSQL_PORT: %v", err)
		}
		port = n
	}
	user := os.Getenv("CASEBOT_TEST_MYSQL_USER")
	if user == "" {
		user = "root"
	}
	name := os.Getenv("CASEBOT_TEST_MYSQL_DB")
	if name == "" {
		name = "casebot_test"
	}
	return config.DatabaseConfig{
		Driver:   "mysql",
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("CASEBOT_TEST_MYSQL_PASSWORD"),
		Name:     name,
	}
}

func TestIntegration_MySQLMigrateAndUpsert(t *testing.T) {
	gdb, err := Connect(mysqlConfig(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		gdb.Where("session_id = ?", "integration-1").Delete(&models.InterviewSession{})
	})

	row := models.InterviewSession{SessionID: "integration-1", Stage: "collecting", State: "{}"}
	if err := gdb.Save(&row).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	var got models.InterviewSession
	if err := gdb.First(&got, "session_id = ?", "integration-1").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.Stage != "collecting" {
		t.Errorf("Stage = %q, want collecting", got.Stage)
	}
}
