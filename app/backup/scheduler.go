package backup

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/cabwad/hris/app/web/persistence"
)

// Cron interface defines basic robfig/cron methods used by scheduler
type Cron interface {
	Start()
	Stop() context.Context
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
}

// Creator makes backups and removes expired ones
type Creator interface {
	Create(ctx context.Context, p CreateParams) (persistence.Backup, error)
	RunRetention(ctx context.Context)
}

// Scheduler runs backups on cron schedule followed by retention cleanup
type Scheduler struct {
	Cron
	Creator Creator
	Spec    string // standard 5-field cron spec
	Params  CreateParams
}

// Do runs blocking scheduler until context canceled
func (s *Scheduler) Do(ctx context.Context) error {
	sched, err := cron.ParseStandard(s.Spec)
	if err != nil {
		return fmt.Errorf("can't parse backup schedule %q: %w", s.Spec, err)
	}
	id := s.Schedule(sched, s.jobFunc(ctx))
	log.Printf("[INFO] scheduled backups %q, first: %s (%v)", s.Spec, sched.Next(time.Now()).Format(time.RFC3339), id)

	s.Start()
	<-ctx.Done()
	log.Print("[DEBUG] terminate backup scheduler")
	<-s.Stop().Done()
	return nil
}

func (s *Scheduler) jobFunc(ctx context.Context) cron.FuncJob {
	return func() {
		p := s.Params
		if p.User == "" {
			p.User = "scheduler"
		}
		if _, err := s.Creator.Create(ctx, p); err != nil {
			log.Printf("[WARN] scheduled backup failed, %v", err)
		}
		s.Creator.RunRetention(ctx)
	}
}
