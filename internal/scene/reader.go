package scene

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ReadScene reads a scene description from a YAML file.
// The scene is normalized before it is returned.
func ReadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, err
	}

	scene.Normalize()
	return &scene, nil
}

// WriteScene writes a scene description to a YAML file
func WriteScene(scene *Scene, path string) error {
	data, err := yaml.Marshal(scene)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
