package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rosterhub.com/rosterhub/attend/model"
	"rosterhub.com/rosterhub/utils"
)

// Seeds a demo event with confirmed staff and not-started work logs so the
// scan flow can be exercised locally end to end.
func main() {
	eventID := flag.String("event", "demo-event", "event id to seed")
	date := flag.String("date", "2025-06-01", "work log date (YYYY-MM-DD)")
	staffCount := flag.Int("staff", 20, "number of staff members")
	flag.Parse()

	normalized, err := utils.NormalizeDate(*date)
	if err != nil {
		panic(err)
	}

	dsn := os.Getenv("DSN")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		panic(err)
	}

	if err := db.AutoMigrate(
		&model.EventStaff{},
		&model.WorkLog{},
		&model.StaffQRCredential{},
		&model.ScanHistory{},
	); err != nil {
		panic(err)
	}

	day := utils.MustParseDate(normalized)
	start := day.Add(13 * time.Hour)
	end := day.Add(18 * time.Hour)

	var roster []model.EventStaff
	var workLogs []model.WorkLog
	for i := 1; i <= *staffCount; i++ {
		staffID := fmt.Sprintf("staff-%03d", i)
		roster = append(roster, model.EventStaff{
			EventID: *eventID,
			StaffID: staffID,
			Name:    fmt.Sprintf("Demo Staff %03d", i),
			Role:    "dealer",
		})
		workLogs = append(workLogs, model.WorkLog{
			StaffID:            staffID,
			UserID:             staffID,
			EventID:            *eventID,
			Date:               normalized,
			Status:             model.StatusNotStarted,
			ScheduledStartTime: utils.Ptr(start),
			ScheduledEndTime:   utils.Ptr(end),
		})
	}

	if err := db.CreateInBatches(roster, 100).Error; err != nil {
		panic(err)
	}
	if err := db.CreateInBatches(workLogs, 100).Error; err != nil {
		panic(err)
	}

	fmt.Printf("seeded %d staff and %d work logs for event %s on %s\n",
		len(roster), len(workLogs), *eventID, normalized)
}
