package model

// IntakeForm is the yes/no risk questionnaire a patient fills in at signup.
type IntakeForm struct {
	SingleParent         bool    `json:"singleParent"`
	ParentsDivorced      bool    `json:"parentsDivorced"`
	SocioeconomicScale   float64 `json:"socioeconomicScale"`
	AbusiveFamily        bool    `json:"abusiveFamily"`
	AbusiveFriends       bool    `json:"abusiveFriends"`
	AbusivePartner       bool    `json:"abusivePartner"`
	ChronicFamilyHealth  bool    `json:"chronicFamilyHealth"`
	SpiritualSupport     bool    `json:"spiritualSupport"`
	SelfHarm             bool    `json:"selfHarm"`
	SexMale              bool    `json:"sexMale"`
	AgeRisk              bool    `json:"ageRisk"`
	Depression           bool    `json:"depression"`
	PreviousAttempt      bool    `json:"previousAttempt"`
	Ethanol              bool    `json:"ethanol"`
	RecentPhysicianVisit bool    `json:"recentPhysicianVisit"`
	BodyImage            bool    `json:"bodyImage"`
	SexualAbuse          bool    `json:"sexualAbuse"`
	BehaviorChange       bool    `json:"behaviorChange"`
	LocalityDrugs        bool    `json:"localityDrugs"`
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RiskProfile scores the form into the six questionnaire groups. Every
// group carries weight 1; unused vector slots stay zero. The SAD PERSONS
// group keeps only its first five items.
func (f IntakeForm) RiskProfile() *RiskProfile {
	group := func(v ...float64) RiskGroup {
		g := RiskGroup{Weights: 1}
		copy(g.Values[:], v)
		return g
	}
	return &RiskProfile{
		FamilyStructure: group(flag(f.SingleParent), flag(f.ParentsDivorced)),
		SocioEcoStats:   group(f.SocioeconomicScale),
		Relationship:    group(flag(f.AbusiveFamily), flag(f.AbusiveFriends), flag(f.AbusivePartner)),
		HealthSupport:   group(flag(f.ChronicFamilyHealth), flag(f.SpiritualSupport), flag(f.SelfHarm)),
		SadPerson: group(flag(f.SexMale), flag(f.AgeRisk), flag(f.Depression),
			flag(f.PreviousAttempt), flag(f.Ethanol)),
		Additional: group(flag(f.RecentPhysicianVisit), flag(f.BodyImage), flag(f.SexualAbuse),
			flag(f.BehaviorChange), flag(f.LocalityDrugs)),
	}
}
