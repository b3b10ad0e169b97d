package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RolePatient          Role = "patient"
	RoleDoctor           Role = "doctor"
	RoleEmergencyContact Role = "emergency_contact"
)

// ParseRole maps any accepted spelling to its canonical role.
// "Patient", "EmergencyContact" and "emergency-contact" are all accepted.
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	switch norm {
	case "patient":
		return RolePatient, nil
	case "doctor":
		return RoleDoctor, nil
	case "emergencycontact":
		return RoleEmergencyContact, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleEmergencyContact:
		return true
	}
	return false
}

// DefaultPuzzleSchedule is assigned to every new patient.
var DefaultPuzzleSchedule = []string{"09:00", "15:00", "21:00"}

// RiskGroup is one questionnaire section: a fixed-length answer vector and a weight.
type RiskGroup struct {
	Values  [5]float64 `json:"values"`
	Weights float64    `json:"weights"`
}

// RiskProfile is the intake questionnaire snapshot stored on a patient.
type RiskProfile struct {
	FamilyStructure RiskGroup `json:"familyStructure"`
	SocioEcoStats   RiskGroup `json:"socioEcoStats"`
	Relationship    RiskGroup `json:"relationship"`
	HealthSupport   RiskGroup `json:"healthSupport"`
	SadPerson       RiskGroup `json:"sadPerson"`
	Additional      RiskGroup `json:"additional"`
}

// Location is a GeoJSON-style point, longitude first.
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewPoint(longitude, latitude float64) *Location {
	return &Location{Type: "Point", Coordinates: [2]float64{longitude, latitude}}
}

type Account struct {
	ID             int64        `json:"id"`
	Role           Role         `json:"role"`
	FullName       string       `json:"fullName"`
	Username       string       `json:"username,omitempty"`
	Email          string       `json:"email"`
	PasswordHash   string       `json:"-"`
	Age            *int         `json:"age,omitempty"`
	SobrietyStreak int          `json:"sobrietyStreak"`
	LastUpdated    *time.Time   `json:"lastUpdated"`
	PuzzleSchedule []string     `json:"puzzleSchedule,omitempty"`
	RiskProfile    *RiskProfile `json:"riskProfile,omitempty"`
	DoctorNotes    string       `json:"doctorNotes,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	Location       *Location    `json:"location,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	// Relations, loaded on demand by the account store.
	EmergencyContacts []int64 `json:"emergencyContacts"`
	Rewards           []int64 `json:"rewards"`
	Patients          []int64 `json:"patients,omitempty"`
}

func (a *Account) IsPatient() bool {
	return a != nil && a.Role == RolePatient
}

// StreakState is the streak view returned by the streak endpoints.
type StreakState struct {
	SobrietyStreak int         `json:"sobrietyStreak"`
	StreakHistory  []time.Time `json:"streakHistory"`
	LastUpdated    *time.Time  `json:"lastUpdated"`
}
