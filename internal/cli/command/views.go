package command

import (
	"time"
)

// Views mirror the server's JSON and add csv tags for CSV output.

type attendanceView struct {
	ID         uint64 `json:"id" yaml:"id" csv:"id"`
	EmployeeID uint64 `json:"employee_id" yaml:"employee_id" csv:"employee_id"`
	Time       uint64 `json:"time" yaml:"time" csv:"time"`
}

type employeeView struct {
	EmployeeID uint64 `json:"employee_id" yaml:"employee_id" csv:"employee_id"`
	Name       string `json:"name" yaml:"name" csv:"name"`
	Role       string `json:"role" yaml:"role" csv:"role"`
}

type healthView struct {
	Server string `json:"server" csv:"server"`
	Status string `json:"status" csv:"status"`
	Time   string `json:"time" csv:"time"`
}

type summaryResponse struct {
	Status string `json:"status"`
	Build  struct {
		Version   string `json:"version"`
		Commit    string `json:"commit"`
		GoVersion string `json:"go_version"`
	} `json:"build"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Storage       *struct {
		InMemory         bool   `json:"in_memory"`
		LastAttendanceID uint64 `json:"last_attendance_id"`
		AttendanceCount  int    `json:"attendance_count"`
		EmployeeCount    int    `json:"employee_count"`
		KV               *struct {
			TotalSize uint64 `json:"total_size"`
		} `json:"kv"`
	} `json:"storage"`
	Backups int `json:"backups"`
}

type statusView struct {
	Status           string `json:"status" csv:"status"`
	Version          string `json:"version" csv:"version"`
	Uptime           string `json:"uptime" csv:"uptime"`
	InMemory         bool   `json:"in_memory" csv:"in_memory"`
	LastAttendanceID uint64 `json:"last_attendance_id" csv:"last_attendance_id"`
	AttendanceCount  int    `json:"attendance_count" csv:"attendance_count"`
	EmployeeCount    int    `json:"employee_count" csv:"employee_count"`
	DiskBytes        uint64 `json:"disk_bytes" csv:"disk_bytes" table:"wide"`
	Backups          int    `json:"backups" csv:"backups"`
	Commit           string `json:"commit" csv:"commit" table:"wide"`
	GoVersion        string `json:"go_version" csv:"go_version" table:"wide"`
}

func newStatusView(s *summaryResponse) statusView {
	v := statusView{
		Status:    s.Status,
		Version:   s.Build.Version,
		Uptime:    (time.Duration(s.UptimeSeconds) * time.Second).String(),
		Backups:   s.Backups,
		Commit:    s.Build.Commit,
		GoVersion: s.Build.GoVersion,
	}
	if st := s.Storage; st != nil {
		v.InMemory = st.InMemory
		v.LastAttendanceID = st.LastAttendanceID
		v.AttendanceCount = st.AttendanceCount
		v.EmployeeCount = st.EmployeeCount
		if st.KV != nil {
			v.DiskBytes = st.KV.TotalSize
		}
	}
	return v
}

type gcView struct {
	Rewrites    uint64    `json:"rewrites" csv:"rewrites"`
	TriggeredAt time.Time `json:"triggered_at" csv:"triggered_at"`
}

type backupInfo struct {
	ID        string           `json:"id"`
	CreatedAt int64            `json:"created_at"`
	Size      int64            `json:"size"`
	Path      string           `json:"path"`
	Checksum  string           `json:"checksum"`
	Encrypted bool             `json:"encrypted"`
	Counts    map[string]int64 `json:"counts"`
}

type backupView struct {
	ID         string `json:"id" csv:"id"`
	CreatedAt  string `json:"created_at" csv:"created_at"`
	Size       int64  `json:"size" csv:"size"`
	Encrypted  bool   `json:"encrypted" csv:"encrypted"`
	Attendance int64  `json:"attendance" csv:"attendance"`
	Employees  int64  `json:"employees" csv:"employees"`
	Checksum   string `json:"checksum" csv:"checksum" table:"wide"`
	Path       string `json:"path" csv:"path" table:"wide"`
}

func newBackupView(b *backupInfo) backupView {
	return backupView{
		ID:         b.ID,
		CreatedAt:  time.UnixMilli(b.CreatedAt).UTC().Format(time.RFC3339),
		Size:       b.Size,
		Encrypted:  b.Encrypted,
		Attendance: b.Counts["attendance"],
		Employees:  b.Counts["employee"],
		Checksum:   b.Checksum,
		Path:       b.Path,
	}
}
