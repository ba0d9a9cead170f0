package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// HealthController serves the liveness probe and the environment check.
type HealthController struct {
	// configPresence maps required config key names to whether a value is
	// set. Only the names are ever reported, never the values.
	configPresence map[string]bool
}

func NewHealthController(configPresence map[string]bool) *HealthController {
	return &HealthController{configPresence: configPresence}
}

// Health handles GET /health.
func (hc *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// EnvCheck handles GET /env-check: which required configuration values are
// present, by name only.
func (hc *HealthController) EnvCheck(c *gin.Context) {
	present := make([]string, 0, len(hc.configPresence))
	missing := make([]string, 0)
	for key, ok := range hc.configPresence {
		if ok {
			present = append(present, key)
		} else {
			missing = append(missing, key)
		}
	}

	sort.Strings(present)
	sort.Strings(missing)

	c.JSON(http.StatusOK, gin.H{
		"success": len(missing) == 0,
		"present": present,
		"missing": missing,
	})
}
