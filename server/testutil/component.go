package testutil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/testserver/component"
	"github.com/kbukum/testserver/server"
	"github.com/kbukum/testserver/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Component is a test server whose handler is a Gin engine. Register routes
// on GinEngine before or between runs. Everything else is the embedded
// *server.Server.
type Component struct {
	*server.Server
	engine *gin.Engine
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// NewComponent creates a stopped Gin-backed test server.
func NewComponent(opts ...server.Option) *Component {
	engine := gin.New()
	return &Component{
		Server: server.New(engine, opts...),
		engine: engine,
	}
}

// GinEngine returns the Gin engine for registering routes.
func (c *Component) GinEngine() *gin.Engine {
	return c.engine
}

// Describe adds the number of registered routes to the server summary.
func (c *Component) Describe() component.Description {
	d := c.Server.Describe()
	d.Name = "Gin Test Server"
	d.Details = d.Details + " routes=" + strconv.Itoa(len(c.engine.Routes()))
	return d
}
