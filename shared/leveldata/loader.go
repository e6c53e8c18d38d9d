package leveldata

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lafriks/go-tiled"
)

const (
	terrainLayer = "terrain"
	spawnGroup   = "Spawns"
)

// LoadTerrain parses a TMX file. Tiles of the "terrain" layer become cells;
// their tileset properties "height", "rise" and "ramp" describe the
// surface. Objects of the "Spawns" group become spawn points. It takes an
// fs.FS so callers can pass embed.FS or os.DirFS.
func LoadTerrain(fsys fs.FS, tmxPath string) (*TerrainData, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	tileW := float64(levelMap.TileWidth)
	tileH := float64(levelMap.TileHeight)
	data := &TerrainData{
		Width:  float64(levelMap.Width) * tileW,
		Height: float64(levelMap.Height) * tileH,
	}

	found := false
	for _, layer := range levelMap.Layers {
		if layer.Name != terrainLayer {
			continue
		}
		found = true
		// Layer-wide offset, e.g. for a plateau drawn on its own layer
		offset := layer.Properties.GetFloat("height")
		for y := 0; y < levelMap.Height; y++ {
			for x := 0; x < levelMap.Width; x++ {
				tile := layer.Tiles[y*levelMap.Width+x]
				if tile.IsNil() {
					continue
				}

				cell := TerrainCell{
					X:    float64(x) * tileW,
					Y:    float64(y) * tileH,
					W:    tileW,
					H:    tileH,
					Base: offset,
				}
				if tilesetTile, err := tile.Tileset.GetTilesetTile(tile.ID); err == nil {
					cell.Base += tilesetTile.Properties.GetFloat("height")
					cell.Rise = tilesetTile.Properties.GetFloat("rise")
					cell.Ramp = tilesetTile.Properties.GetString("ramp")
				}
				data.Cells = append(data.Cells, cell)
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("load TMX %s: no %q layer", tmxPath, terrainLayer)
	}

	for _, og := range levelMap.ObjectGroups {
		if og.Name != spawnGroup {
			continue
		}
		for _, o := range og.Objects {
			data.Spawns = append(data.Spawns, SpawnPoint{
				X:     o.X,
				Y:     o.Y,
				Index: o.Properties.GetInt("spawnIndex"),
				Kind:  o.Properties.GetString("kind"),
			})
		}
	}

	sort.Slice(data.Spawns, func(i, j int) bool {
		return data.Spawns[i].Index < data.Spawns[j].Index
	})

	return data, nil
}

// LoadAllTerrains discovers all .tmx files in dir within fsys and loads
// each, returning a map keyed by stem name plus a sorted list of names.
func LoadAllTerrains(fsys fs.FS, dir string) (map[string]*TerrainData, []string, error) {
	pattern := dir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", dir)
	}

	terrains := make(map[string]*TerrainData, len(matches))
	names := make([]string, 0, len(matches))

	for _, path := range matches {
		data, err := LoadTerrain(fsys, path)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".tmx")
		terrains[stem] = data
		names = append(names, stem)
	}

	sort.Strings(names)
	return terrains, names, nil
}
