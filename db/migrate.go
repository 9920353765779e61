package db

import (
	"fmt"

	"github.com/itglabs/impact-agent/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&models.Individual{},
		&models.Organization{},
		&models.Agent{},
		&models.IndividualOrganization{},
		&models.OrganizationRole{},
		&models.AgentFeedbackRequest{},
		&models.Message{},
	)
}
