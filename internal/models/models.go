package models

import "time"

type Role string

const (
	RoleGuest   Role = "guest"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleGuest, RoleStudent, RoleParent, RoleAdmin:
		return r, true
	}

	return "", false
}

type Account struct {
	ID         string
	Username   string
	Email      string
	PassHash   []byte
	Role       Role
	IsVerified bool

	// Token fields hold SHA-256 hashes, never the raw tokens.
	VerificationTokenHash string
	ResetTokenHash        string
	ResetExpiry           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the account as shown to its owner.
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (a Account) Profile() Profile {
	return Profile{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		Role:       a.Role,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
	}
}

type Course string

const (
	CourseQuran   Course = "quran"
	CourseArabic  Course = "arabic"
	CourseHadith  Course = "hadith"
	CourseFiqh    Course = "fiqh"
	CourseIslamic Course = "islamic"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, true
	}

	return "", false
}

type Admission struct {
	ID                string     `json:"id"`
	StudentName       string     `json:"studentName"`
	Age               int        `json:"age"`
	ParentName        string     `json:"parentName"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email,omitempty"`
	Address           string     `json:"address"`
	PreviousEducation string     `json:"previousEducation,omitempty"`
	Course            Course     `json:"course"`
	Status            Status     `json:"status"`
	SubmittedBy       *string    `json:"submittedBy,omitempty"`
	ReviewedBy        *string    `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Review is the unit written by a status transition.
type Review struct {
	Status     Status
	Notes      string
	ReviewedBy string
	ReviewedAt time.Time
}

type AdmissionFilter struct {
	Status *Status
	Limit  int
	Offset int
}

type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type ContentCounts struct {
	News    int `json:"news"`
	Faculty int `json:"faculty"`
}

type AdmissionSummary struct {
	ID          string    `json:"id"`
	StudentName string    `json:"studentName"`
	Course      Course    `json:"course"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AdminStats struct {
	Admissions       StatusCounts       `json:"admissions"`
	Content          ContentCounts      `json:"content"`
	RecentAdmissions []AdmissionSummary `json:"recentAdmissions"`
}

// ApplicationReviewed is emitted after a review has been persisted.
type ApplicationReviewed struct {
	ID          string
	Status      Status
	Notes       string
	StudentName string
	ParentName  string
	Contact     string
}

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeAdmissionReviewed Purpose = "admission_reviewed"
)

// Message is the wire format of the email queue.
type Message struct {
	ID          string  `json:"id"`
	Email       string  `json:"to"`
	Purpose     Purpose `json:"purpose"`
	Link        string  `json:"link,omitempty"`
	Recipient   string  `json:"recipient,omitempty"`
	StudentName string  `json:"student_name,omitempty"`
	Status      Status  `json:"status,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}
