package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
	"github.com/datptitudu2/backendthuvienptit/internal/scheduler"
)

// JobLister reports the registered periodic jobs.
type JobLister interface {
	IsRunning() bool
	Status() []scheduler.JobStatus
}

type SweepsController struct {
	runner    scheduler.SweepRunner
	scheduler JobLister
}

// NewSweepsController creates the sweep admin endpoints. jobs may be nil when
// the periodic scheduler is disabled; sweeps can still be run on demand.
func NewSweepsController(runner scheduler.SweepRunner, jobs JobLister) *SweepsController {
	return &SweepsController{runner: runner, scheduler: jobs}
}

func (controller *SweepsController) ListSweeps(c *gin.Context) {
	running := false
	jobs := []scheduler.JobStatus{}
	if controller.scheduler != nil {
		running = controller.scheduler.IsRunning()
		jobs = controller.scheduler.Status()
	}
	c.JSON(http.StatusOK, gin.H{
		"sweeps":  monitor.SweepNames(),
		"running": running,
		"jobs":    jobs,
	})
}

// RunSweep runs the named sweep synchronously and returns its summary.
func (controller *SweepsController) RunSweep(c *gin.Context) {
	name := c.Param("name")
	result, err := controller.runner.Run(c.Request.Context(), name)
	if errors.Is(err, monitor.ErrUnknownSweep) {
		respondNotFound(c, "sweep")
		return
	}
	if err != nil {
		respondInternalError(c, err, "run sweep "+name)
		return
	}
	c.JSON(http.StatusOK, result)
}
