package export

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/pkg/errors"
)

// render runs the embedded Graphviz engine over a DOT document. No external
// dot binary is needed.
func render(dot []byte, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, errors.Wrap(err, "parsing DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	err = gv.Render(ctx, g, format, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "rendering graph")
	}
	return buf.Bytes(), nil
}

func RenderSVG(dot []byte) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

func RenderPNG(dot []byte) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func SaveRendered(filename string, dot []byte, format graphviz.Format) error {
	data, err := render(dot, format)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ManualRenderHint tells the user how to render a saved DOT file themselves
// when the embedded engine fails.
func ManualRenderHint(dotfile string) string {
	return fmt.Sprintf("install Graphviz and run: dot -Tpng -O %v", dotfile)
}
