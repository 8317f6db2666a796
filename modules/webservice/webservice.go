package webservice

import (
	"bytes"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/klarberg/adnest/modules/export"
	"github.com/klarberg/adnest/modules/membership"
	"github.com/klarberg/adnest/modules/ui"
)

var qjson = jsoniter.ConfigCompatibleWithStandardLibrary

const indexpage = `<html><head><title>adnest</title></head><body>
<h1>adnest</h1>
<ul>
<li><a href="api/records">membership records (JSON)</a></li>
<li><a href="api/graph">membership graph (Cytoscape JSON)</a></li>
<li><a href="graph.dot">membership graph (Graphviz DOT)</a></li>
<li><a href="graph.svg">membership graph (rendered SVG)</a></li>
<li><a href="files/">exported files</a></li>
</ul>
</body></html>`

type WebService struct {
	quit   chan bool
	engine *gin.Engine
	Router *gin.RouterGroup
	API    *gin.RouterGroup
	srv    http.Server

	model *membership.Model
}

func NewWebservice() *WebService {
	gin.SetMode(gin.ReleaseMode) // Has to happen first
	ws := &WebService{
		quit:   make(chan bool),
		engine: gin.New(),
	}
	ws.engine.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		logger := ui.Info()
		if c.Writer.Status() >= 500 {
			logger = ui.Error()
		} else if c.Writer.Status() >= 400 {
			logger = ui.Warn()
		}
		logger.Msgf("%s %s (%v) %v, %v bytes", c.Request.Method, path, c.Writer.Status(), time.Since(start), c.Writer.Size())
	})
	ws.engine.Use(gin.Recovery())
	ws.Router = ws.engine.Group("")
	ws.API = ws.Router.Group("/api")

	ws.Router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexpage))
	})
	ws.API.GET("records", func(c *gin.Context) {
		model, loaded := ws.graph(c)
		if !loaded {
			return
		}
		data, err := qjson.MarshalIndent(model.Records(), "", "  ")
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	})
	ws.API.GET("graph", func(c *gin.Context) {
		model, loaded := ws.graph(c)
		if !loaded {
			return
		}
		data, err := qjson.MarshalIndent(export.GenerateCytoscapeJS(model), "", "  ")
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	})
	ws.Router.GET("/graph.dot", func(c *gin.Context) {
		model, loaded := ws.graph(c)
		if !loaded {
			return
		}
		var buf bytes.Buffer
		err := export.WriteDOT(&buf, model)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "text/vnd.graphviz", buf.Bytes())
	})
	ws.Router.GET("/graph.svg", func(c *gin.Context) {
		model, loaded := ws.graph(c)
		if !loaded {
			return
		}
		var buf bytes.Buffer
		err := export.WriteDOT(&buf, model)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		svg, err := export.RenderSVG(buf.Bytes())
		if err != nil {
			c.String(http.StatusInternalServerError, "could not render graph: %v", err)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", svg)
	})

	return ws
}

func (ws *WebService) graph(c *gin.Context) (*membership.Model, bool) {
	if ws.model == nil {
		c.String(http.StatusServiceUnavailable, "no scan results loaded")
		return nil, false
	}
	return ws.model, true
}

func (ws *WebService) SetModel(model *membership.Model) {
	ws.model = model
}

// ServeFiles exposes previously exported reports below /files/.
func (ws *WebService) ServeFiles(path string) {
	ws.Router.StaticFS("/files", http.Dir(path))
}

func (ws *WebService) QuitChan() <-chan bool {
	return ws.quit
}

func (ws *WebService) Quit() {
	close(ws.quit)
}

func (ws *WebService) Start(bind string) error {
	ws.srv.Addr = bind
	ws.srv.Handler = ws.engine

	conn, err := net.Listen("tcp", ws.srv.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := ws.srv.Serve(conn); err != nil && err != http.ErrServerClosed {
			ui.Fatal().Msgf("Problem launching webservice listener: %s", err)
		}
	}()
	ui.Info().Msgf("Web service listening at http://%v/ ... (ctrl-c or similar to quit)", bind)
	return nil
}
