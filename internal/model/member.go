package model

import "time"

type Member struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Mobile    string    `json:"mobile,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	JoinDate  time.Time `json:"joinDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MemberPatch carries a partial member update. Nil fields keep the stored value.
type MemberPatch struct {
	Name     *string    `json:"name"`
	Email    *string    `json:"email"`
	Mobile   *string    `json:"mobile"`
	Role     *string    `json:"role"`
	Active   *bool      `json:"active"`
	JoinDate *time.Time `json:"joinDate"`
}

// Apply returns a copy of m with every supplied field of p overriding it.
func (p MemberPatch) Apply(m Member) Member {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Mobile != nil {
		m.Mobile = *p.Mobile
	}
	if p.Role != nil {
		m.Role = *p.Role
	}
	if p.Active != nil {
		m.Active = *p.Active
	}
	if p.JoinDate != nil {
		m.JoinDate = *p.JoinDate
	}
	return m
}
