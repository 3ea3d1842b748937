package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"net/http"
	"runtime"
	"time"
)

type status struct {
	Uptime     string   `json:"uptime"`
	CPUPercent float64  `json:"cpu_percent"`
	AllocMB    uint64   `json:"alloc_mb"`
	SysMB      uint64   `json:"sys_mb"`
	Goroutines int      `json:"goroutines"`
	Parsers    []string `json:"parsers"`
	WSClients  int      `json:"ws_clients"`
}

func (h *Handlers) Status(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	st := status{
		Uptime:     time.Since(h.started).Truncate(time.Second).String(),
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		Parsers:    h.engine.Parsers(),
	}
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		st.CPUPercent = percent[0]
	}
	if h.hub != nil {
		st.WSClients = h.hub.Clients()
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handlers) Tiers(c *gin.Context) {
	tiers, err := h.perms.Tiers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}

func (h *Handlers) Events(c *gin.Context) {
	if h.hub == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.hub.ServeHTTP(c.Writer, c.Request)
}
