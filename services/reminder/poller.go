// Package remindersvc emails group members about homework deadlines
// approaching within the next day.
package remindersvc

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/homework"
)

var (
	pollInterval = 15 * time.Minute
	dueWithin    = 24 * time.Hour
)

type Poller struct {
	homeworkSvc homework.Service
	groupSvc    group.Service
	mailSvc     core.EmailService
	logger      core.Logger

	mu   sync.Mutex
	stop chan struct{}
}

func NewPoller(hwSvc homework.Service, grpSvc group.Service, mailSvc core.EmailService, logger core.Logger) *Poller {
	return &Poller{
		homeworkSvc: hwSvc,
		groupSvc:    grpSvc,
		mailSvc:     mailSvc,
		logger:      logger,
	}
}

// Start launches the background poll loop. Calling it on a running
// poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	go p.run(p.stop)
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
}

func (p *Poller) run(stop chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Poll(context.Background()); err != nil {
				p.logger.Error("polling due homework", err)
			}
		case <-stop:
			return
		}
	}
}

// Poll sends a reminder for each assignment due within the window and
// marks it reminded so the next tick skips it.
func (p *Poller) Poll(ctx context.Context) error {
	hws, err := p.homeworkSvc.DueSoon(ctx, dueWithin)
	if err != nil {
		return err
	}

	var remindedIDs []string
	for _, hw := range hws {
		members, err := p.groupSvc.Members(ctx, hw.GroupID)
		if err != nil {
			p.logger.Error(fmt.Sprintf("querying members of group %s", hw.GroupID), err)
			continue
		}
		if len(members) == 0 {
			remindedIDs = append(remindedIDs, hw.ID)
			continue
		}

		to := make([]mail.Address, 0, len(members))
		for _, m := range members {
			if m.Email != "" {
				to = append(to, mail.Address{Name: m.Name, Address: m.Email})
			}
		}
		p.mailSvc.SendMessages(&core.EmailMessage{
			Bcc:          to,
			Subject:      fmt.Sprintf("Homework due soon: %s", hw.Title),
			TemplateName: "homework-reminder",
			TemplateData: struct {
				Title       string
				Description string
				DueAt       time.Time
			}{hw.Title, hw.Description, hw.DueAt},
		})
		remindedIDs = append(remindedIDs, hw.ID)
	}

	return p.homeworkSvc.MarkReminded(ctx, remindedIDs...)
}
