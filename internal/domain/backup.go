package domain

import "time"

const BackupSchemaVersion = 1

type BackupData struct {
	Employees      []*Employee     `json:"employees"`
	Availabilities []*Availability `json:"availabilities"`
	Schedules      []*Schedule     `json:"schedules"`
	Absences       []*Absence      `json:"absences"`
	Notifications  []*Notification `json:"notifications"`
}

type Backup struct {
	SchemaVersion int        `json:"schemaVersion"`
	ExportedAt    time.Time  `json:"exportedAt"`
	Data          BackupData `json:"data"`
}
