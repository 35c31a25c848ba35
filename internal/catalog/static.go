// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import "github.com/ManuGH/swinglab/internal/domain/compare/model"

const fallbackClipURI = "https://assets.mixkit.co/videos/preview/mixkit-golf-player-hitting-the-ball-40107-large.mp4"

// staticSwings is served when the catalog database is unavailable or empty.
func staticSwings() []model.ProSwing {
	entry := func(id, name, golfer string, year int) model.ProSwing {
		return model.ProSwing{
			VideoSource: model.VideoSource{ID: id, URI: fallbackClipURI, Thumbnail: fallbackClipURI, Name: name},
			Golfer:      golfer,
			Club:        "Bat",
			Year:        year,
		}
	}
	return []model.ProSwing{
		entry("1", "Power Swing", "Mike Trout", 2023),
		entry("2", "Contact Swing", "Mookie Betts", 2023),
		entry("3", "Home Run Swing", "Aaron Judge", 2022),
		entry("4", "Speed Swing", "Ronald Acuña Jr.", 2023),
		entry("5", "Clutch Swing", "Freddie Freeman", 2023),
	}
}
