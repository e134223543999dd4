package entity

import "gorm.io/gorm"

// AutoMigrate migrates every table, parents before children.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Master data
		&Company{},
		&User{},
		&Machine{},
		&MachineDocument{},
		&MachinePart{},

		// Inventory ledger
		&InventoryTransaction{},

		// Preventive maintenance
		&PMTemplate{},
		&PMTemplateItem{},
		&PMSchedule{},
		&PMScheduleAssignment{},
		&PMResult{},
		&PMResultPhoto{},

		// Repair work orders
		&RepairWork{},
		&RepairWorkItem{},
		&RepairWorkPhoto{},
		&RepairWorkPart{},
		&RepairWorkAssignment{},

		// Push notifications
		&NotificationSubscription{},
	)
}
