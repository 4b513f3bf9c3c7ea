package inline

import (
	"encoding/json"
	"io"

	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/source"
)

// Output is the document printed in json mode.
type Output struct {
	TitleID      string           `json:"title_id"`
	DisplayTitle string           `json:"display_title"`
	Info         session.Info     `json:"info"`
	Complete     bool             `json:"complete"`
	Episodes     []source.Episode `json:"episodes"`
	// Failures lists the selected episodes that could not be resolved.
	Failures []*session.Error `json:"failures,omitempty"`
}

func newOutput(snapshot session.Snapshot, indices []int, failures []*session.Error) *Output {
	episodes := make([]source.Episode, 0, len(indices))
	for _, i := range indices {
		episodes = append(episodes, snapshot.Episodes[i])
	}

	return &Output{
		TitleID:      snapshot.TitleID,
		DisplayTitle: snapshot.DisplayTitle,
		Info:         snapshot.Info(),
		Complete:     snapshot.Complete,
		Episodes:     episodes,
		Failures:     failures,
	}
}

func writeJson(out io.Writer, output *Output) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
