package notify

import (
	"fmt"
	"strings"

	"managemint/internal/models"
)

const dateLayout = "Jan 2, 2006"
const timeLayout = "Jan 2, 2006 15:04 MST"

func Invitation(u *models.User, tempPassword, loginURL string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", u.Name)
	fmt.Fprintf(&b, "An account with the role %q has been created for you on ManageMint.\n\n", u.Role)
	fmt.Fprintf(&b, "Email: %s\nTemporary password: %s\n\n", u.Email, tempPassword)
	fmt.Fprintf(&b, "Sign in at %s and change your password right away.\n", loginURL)
	return Message{To: u.Email, Subject: "Your ManageMint account", Body: b.String()}
}

func PasswordReset(u *models.User, resetURL string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", u.Name)
	b.WriteString("We received a request to reset your ManageMint password.\n\n")
	fmt.Fprintf(&b, "Open this link within one hour to choose a new password:\n%s\n\n", resetURL)
	b.WriteString("If you did not ask for this, you can ignore this email.\n")
	return Message{To: u.Email, Subject: "Reset your ManageMint password", Body: b.String()}
}

func OfferCreated(o *models.Offer, engineer *models.User) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", engineer.Name)
	fmt.Fprintf(&b, "You have a new offer for the position %q.\n\n", o.Position)
	fmt.Fprintf(&b, "Value: %s %s\n", o.Value.StringFixed(2), o.Currency)
	fmt.Fprintf(&b, "Valid: %s to %s\n\n", o.ValidFrom.Format(dateLayout), o.ValidUntil.Format(dateLayout))
	b.WriteString("Sign in to accept or reject it.\n")
	return Message{To: engineer.Email, Subject: "New offer: " + o.Position, Body: b.String()}
}

func OfferStatusChanged(o *models.Offer, marketer *models.User) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", marketer.Name)
	fmt.Fprintf(&b, "The offer for %q is now %s.\n", o.Position, o.Status)
	return Message{
		To:      marketer.Email,
		Subject: fmt.Sprintf("Offer %s: %s", o.Status, o.Position),
		Body:    b.String(),
	}
}

func TimesheetReviewed(ts *models.Timesheet, owner *models.User) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", owner.Name)
	fmt.Fprintf(&b, "Your timesheet for the week of %s (%.2f hours) was %s.\n",
		ts.WeekStart.Format(dateLayout), ts.Hours, ts.Status)
	if ts.ReviewComment != "" {
		fmt.Fprintf(&b, "\nComment: %s\n", ts.ReviewComment)
	}
	return Message{
		To:      owner.Email,
		Subject: fmt.Sprintf("Timesheet %s", ts.Status),
		Body:    b.String(),
	}
}

func MeetingScheduled(m *models.Meeting, participant *models.User) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", participant.Name)
	fmt.Fprintf(&b, "You have been invited to %q.\n\n", m.Title)
	fmt.Fprintf(&b, "When: %s (%d minutes)\n", m.StartTime.Format(timeLayout), m.DurationMinutes)
	if m.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n", m.Location)
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Description)
	}
	return Message{To: participant.Email, Subject: "Meeting: " + m.Title, Body: b.String()}
}
