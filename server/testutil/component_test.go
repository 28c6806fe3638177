package testutil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/testserver/component"
	"github.com/kbukum/testserver/logger"
	"github.com/kbukum/testserver/server"
	"github.com/kbukum/testserver/testutil"
)

func newComponent() *Component {
	return NewComponent(
		server.WithHost("127.0.0.1"),
		server.WithStartPort(34000),
		server.WithLogger(logger.NewNop()),
	)
}

var client = &http.Client{Timeout: 5 * time.Second}

func TestComponent_Lifecycle(t *testing.T) {
	comp := newComponent()
	ctx := context.Background()

	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if health := comp.Health(ctx); health.Status != component.StatusHealthy {
		t.Errorf("Health = %q, want %q", health.Status, component.StatusHealthy)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if health := comp.Health(ctx); health.Status != component.StatusUnhealthy {
		t.Errorf("Health = %q, want %q", health.Status, component.StatusUnhealthy)
	}
}

func TestComponent_ServeRoutes(t *testing.T) {
	comp := newComponent()
	comp.GinEngine().GET("/hello/:name", func(c *gin.Context) {
		c.String(http.StatusOK, "hello "+c.Param("name"))
	})
	comp.GinEngine().POST("/items", func(c *gin.Context) {
		var item struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"name": item.Name})
	})
	testutil.T(t).Setup(comp)

	resp, err := client.Get(comp.URL("/hello/world"))
	if err != nil {
		t.Fatalf("GET /hello/world failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "hello world" {
		t.Errorf("GET /hello/world = %d %q", resp.StatusCode, body)
	}

	resp, err = client.Post(comp.URL("/items"), "application/json", strings.NewReader(`{"name":"x"}`))
	if err != nil {
		t.Fatalf("POST /items failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("POST /items = %d, want 201", resp.StatusCode)
	}

	if err := comp.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	log := comp.Log()
	if len(log) != 2 {
		t.Fatalf("Log() has %d exchanges, want 2", len(log))
	}
	post := log[1]
	if string(post.Request.Body) != `{"name":"x"}` {
		t.Errorf("recorded request body = %q", post.Request.Body)
	}
	if string(post.Response.Body) != `{"name":"x"}` {
		t.Errorf("recorded response body = %q", post.Response.Body)
	}
	if got := post.Response.Headers.Get("content-type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("recorded content-type = %q", got)
	}
}

func TestComponent_UnknownRoute(t *testing.T) {
	comp := newComponent()
	testutil.T(t).Setup(comp)

	resp, err := client.Get(comp.URL("/missing"))
	if err != nil {
		t.Fatalf("GET /missing failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestComponent_Reset(t *testing.T) {
	comp := newComponent()
	comp.GinEngine().GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	ctx := context.Background()

	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	resp, err := client.Get(comp.URL("/ping"))
	if err != nil {
		t.Fatalf("GET /ping failed: %v", err)
	}
	resp.Body.Close()
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if err := comp.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if n := len(comp.Log()); n != 0 {
		t.Errorf("Log() after Reset has %d exchanges, want 0", n)
	}
}

func TestComponent_Describe(t *testing.T) {
	comp := newComponent()
	comp.GinEngine().GET("/a", func(c *gin.Context) {})
	comp.GinEngine().GET("/b", func(c *gin.Context) {})

	d := comp.Describe()
	if d.Name != "Gin Test Server" {
		t.Errorf("Name = %q", d.Name)
	}
	if !strings.HasSuffix(d.Details, "routes=2") {
		t.Errorf("Details = %q, want route count", d.Details)
	}
}
