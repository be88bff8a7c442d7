package jobs

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Job is a scheduled task the manager owns.
type Job interface {
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	jobs   []namedJob
	logger zerolog.Logger
}

type namedJob struct {
	name string
	job  Job
}

func NewJobManager(logger zerolog.Logger) *JobManager {
	return &JobManager{logger: logger}
}

// Add registers job under name. Jobs start in the order they were added.
func (jm *JobManager) Add(name string, job Job) {
	jm.jobs = append(jm.jobs, namedJob{name: name, job: job})
}

// StartAll starts all scheduled jobs. If one fails to start, the jobs
// already running are stopped.
func (jm *JobManager) StartAll() error {
	for i, nj := range jm.jobs {
		if err := nj.job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.job.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", nj.name, err)
		}
	}
	jm.logger.Info().Int("jobs", len(jm.jobs)).Msg("jobs started")
	return nil
}

// StopAll stops jobs in reverse start order.
func (jm *JobManager) StopAll() {
	for i := len(jm.jobs) - 1; i >= 0; i-- {
		jm.jobs[i].job.Stop()
	}
}
