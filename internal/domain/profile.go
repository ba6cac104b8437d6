package domain

import "time"

// Role determines what a user may do on the dashboard.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleJobber     Role = "JOBBER"
)

// Rank is the reputation tier derived from the ATIS score. The stored value
// is a cache of the derivation, never independent truth.
type Rank string

const (
	RankIron   Rank = "IRON"
	RankBronze Rank = "BRONZE"
	RankSilver Rank = "SILVER"
	RankGold   Rank = "GOLD"
)

// ProfileStatus tracks a jobber's standing.
type ProfileStatus string

const (
	StatusActive    ProfileStatus = "active"
	StatusProbation ProfileStatus = "probation"
	StatusSuspended ProfileStatus = "suspended"
)

// Trust modifier bounds. The modifier is independently settable and does not
// affect the ATIS score or rank.
const (
	TrustModifierMin = -20
	TrustModifierMax = 20
)

// Profile is a personnel record. It is the aggregate root for its Proofs in
// the local mirror: proofs are embedded, not a separate top-level collection.
type Profile struct {
	ID            string         `json:"id"`
	Handle        string         `json:"handle"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	AvatarURL     string         `json:"avatar_url"`
	Role          Role           `json:"role"`
	Status        ProfileStatus  `json:"status"`
	ATISScore     int            `json:"atis_score"`
	Rank          Rank           `json:"rank"`
	TrustModifier int            `json:"trust_modifier"`
	Justification string         `json:"justification,omitempty"`
	DynamicData   map[string]any `json:"dynamic_data,omitempty"`
	Proofs        []Proof        `json:"proofs"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ProofStatus transitions pending -> scored through grading, or to an
// administrator-driven approved/flagged.
type ProofStatus string

const (
	ProofPending  ProofStatus = "pending"
	ProofApproved ProofStatus = "approved"
	ProofScored   ProofStatus = "scored"
	ProofFlagged  ProofStatus = "flagged"
)

// Proof is a submitted evidence-of-work record, gradable 1-5 by an
// administrator. Once scored it carries a non-zero AdminScore.
type Proof struct {
	ID          string      `json:"id"`
	JobberID    string      `json:"jobber_id"`
	Type        string      `json:"type,omitempty"`
	Title       string      `json:"title"`
	URL         string      `json:"url,omitempty"`
	Company     string      `json:"company,omitempty"`
	Description string      `json:"description,omitempty"`
	Niche       string      `json:"niche,omitempty"`
	AdminScore  int         `json:"admin_score"`
	Status      ProofStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
