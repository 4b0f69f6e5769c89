package game

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decker502/dragonfolio/pkg/embedded"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/qmuntal/gltf"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Model is the subset of a glTF scene the portfolio needs: its extent, for
// fitting crates and the dragon to layout sizes, plus a few descriptive counts.
type Model struct {
	Path       string
	Bounds     utils.Box3
	MeshCount  int
	NodeCount  int
	Animations []string
}

// Size returns the model's bounding-box size.
func (m *Model) Size() mgl64.Vec3 {
	return m.Bounds.Size()
}

// ResourceManager is responsible for centralized management of scene resources.
// It provides loading and caching for textures, decoded sounds and glTF models,
// ensuring that each resource is read only once.
//
// All resources are read through the embedded package, so "assets/..." paths
// resolve to the asset directory mounted at startup.
//
// Thread Safety Note:
// Unlike a single-threaded game loop loader, the asset manager fetches the
// model, texture and sound concurrently, so every cache is guarded by a mutex.
// Decoding happens outside the lock; two goroutines racing on the same path may
// both decode it, and the first result stored wins.
//
// Usage:
//
//	rm := NewResourceManager(48000)
//	tex, err := rm.LoadTexture("assets/textures/flame.webp")
//	if err != nil {
//	    log.Printf("Failed to load texture: %v", err)
//	}
type ResourceManager struct {
	mu         sync.Mutex
	sampleRate int                      // Target sample rate for decoded PCM
	imageCache map[string]*ebiten.Image // path -> Image
	soundCache map[string][]byte        // path -> 16-bit stereo PCM
	modelCache map[string]*Model        // path -> Model
}

// NewResourceManager creates a ResourceManager whose sounds are resampled to
// sampleRate (it must match the audio.Context used for playback).
func NewResourceManager(sampleRate int) *ResourceManager {
	return &ResourceManager{
		sampleRate: sampleRate,
		imageCache: make(map[string]*ebiten.Image),
		soundCache: make(map[string][]byte),
		modelCache: make(map[string]*Model),
	}
}

// LoadTexture loads an image file and caches it for future use.
// Supported formats: PNG, JPEG, WebP.
//
// Returns an error if the file cannot be read or decoded. Does not panic.
func (rm *ResourceManager) LoadTexture(path string) (*ebiten.Image, error) {
	rm.mu.Lock()
	if cached, ok := rm.imageCache[path]; ok {
		rm.mu.Unlock()
		return cached, nil
	}
	rm.mu.Unlock()

	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}

	ebitenImg := ebiten.NewImageFromImage(img)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if cached, ok := rm.imageCache[path]; ok {
		ebitenImg.Deallocate()
		return cached, nil
	}
	rm.imageCache[path] = ebitenImg
	return ebitenImg, nil
}

// GetTexture retrieves a previously loaded texture, or nil.
func (rm *ResourceManager) GetTexture(path string) *ebiten.Image {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.imageCache[path]
}

// ReleaseTexture drops a texture from the cache. The caller is responsible for
// deallocating the image if it still holds it.
func (rm *ResourceManager) ReleaseTexture(path string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.imageCache, path)
}

// LoadSound loads a sound effect and returns it fully decoded as 16-bit
// little-endian stereo PCM at the manager's sample rate, ready for
// audio.Context.NewPlayerFromBytes.
// Supported formats: WAV (.wav), MP3 (.mp3) and OGG Vorbis (.ogg).
func (rm *ResourceManager) LoadSound(path string) ([]byte, error) {
	rm.mu.Lock()
	if cached, ok := rm.soundCache[path]; ok {
		rm.mu.Unlock()
		return cached, nil
	}
	rm.mu.Unlock()

	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file %s: %w", path, err)
	}

	pcm, err := rm.DecodeSound(path, data)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.soundCache[path] = pcm
	return pcm, nil
}

// DecodeSound decodes an in-memory sound file. The format is chosen by the
// extension of name.
func (rm *ResourceManager) DecodeSound(name string, data []byte) ([]byte, error) {
	reader := bytes.NewReader(data)
	ext := strings.ToLower(filepath.Ext(name))

	var stream io.Reader
	switch ext {
	case ".wav":
		s, err := wav.DecodeWithSampleRate(rm.sampleRate, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode WAV sound %s: %w", name, err)
		}
		stream = s
	case ".mp3":
		s, err := mp3.DecodeWithSampleRate(rm.sampleRate, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode MP3 sound %s: %w", name, err)
		}
		stream = s
	case ".ogg":
		s, err := vorbis.DecodeWithSampleRate(rm.sampleRate, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode OGG sound %s: %w", name, err)
		}
		stream = s
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .ogg)", ext)
	}

	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoded sound %s: %w", name, err)
	}
	return pcm, nil
}

// LoadModel loads a glTF/GLB model and caches it.
func (rm *ResourceManager) LoadModel(path string) (*Model, error) {
	rm.mu.Lock()
	if cached, ok := rm.modelCache[path]; ok {
		rm.mu.Unlock()
		return cached, nil
	}
	rm.mu.Unlock()

	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file %s: %w", path, err)
	}

	model, err := ParseModel(path, data)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.modelCache[path] = model
	return model, nil
}

// ParseModel decodes glTF JSON or binary GLB data and computes the model's
// bounds from the POSITION accessors' min/max. Node transforms are not applied.
func ParseModel(path string, data []byte) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode glTF model %s: %w", path, err)
	}

	bounds := utils.EmptyBox3()
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok || int(idx) >= len(doc.Accessors) {
				continue
			}
			acc := doc.Accessors[idx]
			if acc == nil || len(acc.Min) < 3 || len(acc.Max) < 3 {
				continue
			}
			bounds = bounds.
				ExpandByPoint(mgl64.Vec3{float64(acc.Min[0]), float64(acc.Min[1]), float64(acc.Min[2])}).
				ExpandByPoint(mgl64.Vec3{float64(acc.Max[0]), float64(acc.Max[1]), float64(acc.Max[2])})
		}
	}
	if bounds.IsEmpty() {
		return nil, fmt.Errorf("glTF model %s has no bounded POSITION data", path)
	}

	animations := make([]string, 0, len(doc.Animations))
	for _, a := range doc.Animations {
		animations = append(animations, a.Name)
	}

	return &Model{
		Path:       path,
		Bounds:     bounds,
		MeshCount:  len(doc.Meshes),
		NodeCount:  len(doc.Nodes),
		Animations: animations,
	}, nil
}

// GetModel retrieves a previously loaded model, or nil.
func (rm *ResourceManager) GetModel(path string) *Model {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.modelCache[path]
}
