package reload

import (
	"gopkg.in/yaml.v3"

	"github.com/gnishant95/forge/configstore"
	"github.com/gnishant95/forge/errors"
)

// promtailScrapeConfig mirrors the scrape_configs entry shape Promtail
// expects for static file targets.
type promtailScrapeConfig struct {
	JobName        string           `yaml:"job_name"`
	StaticConfigs  []promtailStatic `yaml:"static_configs"`
	PipelineStages []map[string]any `yaml:"pipeline_stages,omitempty"`
}

type promtailStatic struct {
	Targets []string          `yaml:"targets"`
	Labels  map[string]string `yaml:"labels"`
}

type promtailDoc struct {
	ScrapeConfigs []promtailScrapeConfig `yaml:"scrape_configs"`
}

// RenderPromtail generates the Promtail scrape_configs document for the
// full log-source set. Like RenderNginx this is a full regeneration from
// current store state.
func RenderPromtail(sources []configstore.LogSource) ([]byte, error) {
	doc := promtailDoc{ScrapeConfigs: make([]promtailScrapeConfig, 0, len(sources))}

	for _, src := range sources {
		labels := map[string]string{
			"job":      src.Job,
			"__path__": src.Path,
		}
		for k, v := range src.Labels {
			labels[k] = v
		}

		sc := promtailScrapeConfig{
			JobName: src.Name,
			StaticConfigs: []promtailStatic{
				{Targets: []string{"localhost"}, Labels: labels},
			},
		}

		if src.Multiline != nil {
			stage := map[string]any{
				"firstline": src.Multiline.FirstLine,
			}
			if src.Multiline.MaxLines > 0 {
				stage["max_lines"] = src.Multiline.MaxLines
			}
			sc.PipelineStages = []map[string]any{{"multiline": stage}}
		}

		doc.ScrapeConfigs = append(doc.ScrapeConfigs, sc)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, errors.WrapFatal(err, "reload", "RenderPromtail", "marshal scrape configs")
	}
	return data, nil
}
