// Package replication reads the state of the changeset replication
// published next to the planet dumps. The state tells which sequence
// a freshly downloaded dump corresponds to, so scheduled conversions
// can be tied to a replication sequence.
package replication

import (
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultURL is the changeset replication of the main OSM planet
// server.
const DefaultURL = "https://planet.openstreetmap.org/replication/changesets/"

// State is the content of a state.yaml of the changeset replication.
type State struct {
	Time     stateTime `yaml:"last_run"`
	Sequence int       `yaml:"sequence"`
}

type stateTime struct {
	time.Time
}

func (s *stateTime) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ts string
	if err := unmarshal(&ts); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02 15:04:05.999999999 -07:00", ts)
	s.Time = t
	return err
}

// CurrentState fetches state.yaml from the replication base URL.
func CurrentState(url string) (*State, error) {
	resp, err := http.Get(url + "state.yaml")
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %sstate.yaml", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, errors.Errorf("invalid response for %sstate.yaml: %s", url, resp.Status)
	}
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %sstate.yaml", url)
	}
	return ParseState(b)
}

// ParseState parses a state.yaml document.
func ParseState(b []byte) (*State, error) {
	state := &State{}
	if err := yaml.Unmarshal(b, state); err != nil {
		return nil, errors.Wrap(err, "parsing replication state")
	}
	return state, nil
}
