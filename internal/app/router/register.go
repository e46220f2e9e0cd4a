package router

import "github.com/gin-gonic/gin"

// Registrar is implemented by every API module; Register wires the module's
// routes into the engine.
type Registrar interface{ Register(r *gin.Engine) }

var registrars []Registrar

// Register adds modules to the global registry.
func Register(rs ...Registrar) { registrars = append(registrars, rs...) }

// Mount wires every registered module into the engine.
func Mount(r *gin.Engine) {
	for _, rg := range registrars {
		rg.Register(r)
	}
}
