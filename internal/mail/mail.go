package mail

import (
	"errors"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp not configured")

// Service sends transactional mail over SMTP. A zero host disables sending.
type Service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(host string, port int, user, pass string) *Service {
	if host == "" {
		return &Service{}
	}
	return &Service{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   user,
	}
}

// SendShareInvite emails an invite link for a child.
func (s *Service) SendShareInvite(to, inviteLink, childName string) error {
	if s.dialer == nil {
		return ErrNotConfigured
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "You've been invited to follow "+childName+" on PoopyFeed")
	m.SetBody("text/html", `
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
			<h2>You're invited</h2>
			<p>You've been invited to follow <b>`+childName+`</b>'s feedings, diapers and naps.</p>
			<p><a href="`+inviteLink+`">Accept the invite</a></p>
			<p>If you don't have an account yet, sign up first, then open the link again.</p>
		</div>
	`)
	return s.dialer.DialAndSend(m)
}
