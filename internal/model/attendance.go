package model

import "time"

// DayLayout is the storage and wire format of a calendar day.
const DayLayout = "2006-01-02"

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

type AttendanceRecord struct {
	MemberID string `json:"memberId"`
	Status   string `json:"status"`
}

// AttendanceEntry is the record set for one calendar day. Date is always
// midnight UTC.
type AttendanceEntry struct {
	ID        string             `json:"_id"`
	Date      time.Time          `json:"date"`
	Records   []AttendanceRecord `json:"records"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// PresenceCount is the number of Present marks a member holds across the ledger.
type PresenceCount struct {
	MemberID string
	Count    int
}
