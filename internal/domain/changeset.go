package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketPatch carries already-resolved values for a ticket update. Nil fields
// are left untouched.
type TicketPatch struct {
	Description   *string
	Equipment     *string
	Priority      *TicketPriority
	EstimatedDate *time.Time
	PartsNotes    *string
	Status        *Status
	Technician    *UserRef
	Client        *UserRef

	UnassignTechnician bool
}

// Changeset describes what an update changes compared with the persisted
// ticket. It is computed before anything is written.
type Changeset struct {
	PreviousStatus     *Status
	NewStatus          *Status
	TechnicianChanged  bool
	PreviousTechnician *UserRef
	NewTechnician      *UserRef
	Fields             []string
}

// Empty reports whether the update is a no-op.
func (c Changeset) Empty() bool {
	return len(c.Fields) == 0
}

// StatusChanged reports whether the update moves the ticket to another status.
func (c Changeset) StatusChanged() bool {
	return c.PreviousStatus != nil
}

// PreviousStatusName is the history value for the status before the update.
func (c Changeset) PreviousStatusName() *string {
	if c.PreviousStatus == nil {
		return nil
	}
	name := c.PreviousStatus.DisplayName()
	return &name
}

// Action renders a human readable summary for the history log.
func (c Changeset) Action() string {
	var parts []string
	if c.StatusChanged() {
		parts = append(parts, fmt.Sprintf("Status changed from %s to %s",
			c.PreviousStatus.DisplayName(), c.NewStatus.DisplayName()))
	}
	if c.TechnicianChanged {
		switch {
		case c.PreviousTechnician == nil:
			parts = append(parts, "Technician assigned: "+technicianLabel(c.NewTechnician))
		case c.NewTechnician == nil:
			parts = append(parts, "Technician unassigned: "+technicianLabel(c.PreviousTechnician))
		default:
			parts = append(parts, fmt.Sprintf("Technician reassigned from %s to %s",
				technicianLabel(c.PreviousTechnician), technicianLabel(c.NewTechnician)))
		}
	}
	var other []string
	for _, f := range c.Fields {
		if f != "status" && f != "technician" {
			other = append(other, f)
		}
	}
	if len(other) > 0 {
		parts = append(parts, "Ticket updated: "+strings.Join(other, ", "))
	}
	return strings.Join(parts, "; ")
}

func technicianLabel(u *UserRef) string {
	if u == nil {
		return "none"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Document
}

// Diff applies patch to a copy of current and reports the differences. The
// current ticket is not modified.
func Diff(current Ticket, patch TicketPatch) (Ticket, Changeset) {
	next := current
	var cs Changeset

	if patch.Description != nil && *patch.Description != current.Description {
		next.Description = *patch.Description
		cs.Fields = append(cs.Fields, "description")
	}
	if patch.Equipment != nil && *patch.Equipment != current.Equipment {
		next.Equipment = *patch.Equipment
		cs.Fields = append(cs.Fields, "equipment")
	}
	if patch.Priority != nil && *patch.Priority != current.Priority {
		next.Priority = *patch.Priority
		cs.Fields = append(cs.Fields, "priority")
	}
	if patch.EstimatedDate != nil && !sameDate(patch.EstimatedDate, current.EstimatedDate) {
		d := *patch.EstimatedDate
		next.EstimatedDate = &d
		cs.Fields = append(cs.Fields, "estimated_date")
	}
	if patch.PartsNotes != nil && (current.PartsNotes == nil || *patch.PartsNotes != *current.PartsNotes) {
		notes := *patch.PartsNotes
		next.PartsNotes = &notes
		cs.Fields = append(cs.Fields, "parts_notes")
	}
	if patch.Client != nil && !SameUser(patch.Client, current.Client) {
		next.Client = patch.Client
		cs.Fields = append(cs.Fields, "client")
	}
	if patch.Status != nil && patch.Status.ID != current.Status.ID {
		prev := current.Status
		now := *patch.Status
		next.Status = now
		cs.PreviousStatus = &prev
		cs.NewStatus = &now
		cs.Fields = append(cs.Fields, "status")
	}
	if patch.Technician != nil && !SameUser(patch.Technician, current.Technician) {
		next.Technician = patch.Technician
		cs.TechnicianChanged = true
		cs.PreviousTechnician = current.Technician
		cs.NewTechnician = patch.Technician
		cs.Fields = append(cs.Fields, "technician")
	} else if patch.Technician == nil && patch.UnassignTechnician && current.Technician != nil {
		next.Technician = nil
		cs.TechnicianChanged = true
		cs.PreviousTechnician = current.Technician
		cs.Fields = append(cs.Fields, "technician")
	}
	return next, cs
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}
