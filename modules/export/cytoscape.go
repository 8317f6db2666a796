package export

import (
	"fmt"
	"os"
	"sort"

	"github.com/klarberg/adnest/modules/membership"
	"github.com/klarberg/adnest/modules/version"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var qjson = jsoniter.ConfigCompatibleWithStandardLibrary

type MapStringInterface map[string]interface{}

type CytoGraph struct {
	FormatVersion            string        `json:"format_version"`
	GeneratedBy              string        `json:"generated_by"`
	TargetCytoscapeJSVersion string        `json:"target_cytoscapejs_version"`
	Data                     CytoGraphData `json:"data"`
	Elements                 CytoElements  `json:"elements"`
}

type CytoGraphData struct {
	SharedName string `json:"shared_name"`
	Name       string `json:"name"`
	SUID       int    `json:"SUID"`
	ScanID     string `json:"scan_id,omitempty"`
}

type CytoElements []CytoFlatElement

type CytoFlatElement struct {
	Group string             `json:"group"` // nodes or edges
	Data  MapStringInterface `json:"data"`
}

// GenerateCytoscapeJS converts the model into the Cytoscape JSON dialect that
// Cytoscape desktop imports directly.
func GenerateCytoscapeJS(model *membership.Model) CytoGraph {
	g := CytoGraph{
		FormatVersion:            "1.0",
		GeneratedBy:              version.ProgramVersionShort(),
		TargetCytoscapeJSVersion: "~3.0",
		Data: CytoGraphData{
			SharedName: "adnest membership data",
			Name:       "adnest membership data",
		},
	}

	// Sort the nodes to get consistency
	nodes := model.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})

	ids := make(map[string]string, len(nodes))
	g.Elements = make(CytoElements, 0, len(nodes)+len(model.Edges()))
	for i, node := range nodes {
		id := fmt.Sprintf("n%v", i)
		ids[node.Name] = id
		g.Elements = append(g.Elements, CytoFlatElement{
			Group: "nodes",
			Data: MapStringInterface{
				"id":       id,
				"label":    node.Name,
				"category": node.Category.String(),
			},
		})
	}

	for i, edge := range model.Edges() {
		data := MapStringInterface{
			"id":     fmt.Sprintf("e%v", i),
			"source": ids[edge.From],
			"target": ids[edge.To],
		}
		if edge.Containment {
			data["containment"] = true
		}
		g.Elements = append(g.Elements, CytoFlatElement{
			Group: "edges",
			Data:  data,
		})
	}

	return g
}

func SaveCytoscapeJS(filename string, model *membership.Model, scanid string) error {
	g := GenerateCytoscapeJS(model)
	g.Data.ScanID = scanid
	data, err := qjson.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(filename, data, 0644)
	if err != nil {
		return errors.Wrapf(err, "writing graph %v", filename)
	}
	return nil
}
