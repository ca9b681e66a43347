package dusk

import (
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

type assetState uint8

const (
	assetLoading assetState = iota
	assetReady
	assetFailed
)

type TextureAsset struct {
	Id     AssetId
	Texels []uint8 // RGBA8
	Width  uint32
	Height uint32
}

type MeshVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

type MeshAsset struct {
	Id       AssetId
	Vertices []MeshVertex
	Indices  []uint16
}

// maxTextureDim bounds decoded texture sizes; larger images are scaled down
// so a stray 8k source file cannot blow the texture budget.
const maxTextureDim = 2048

// AssetCache owns loaded render assets, keyed by the stable content keys the
// emitters put into commands. Loads are asynchronous: a key is registered
// immediately in the loading state and flips to ready or failed later; the
// resolver reports only ready keys, so a still-loading model simply skips
// emission for a few frames.
type AssetCache struct {
	mu  sync.RWMutex
	log Logger

	textures map[string]*TextureAsset
	meshes   map[string]*MeshAsset
	states   map[string]assetState
}

func NewAssetCache(log Logger) *AssetCache {
	if log == nil {
		log = NewNopLogger()
	}
	return &AssetCache{
		log:      log,
		textures: make(map[string]*TextureAsset),
		meshes:   make(map[string]*MeshAsset),
		states:   make(map[string]assetState),
	}
}

// Resolver returns the pure lookup function emitters consume.
func (c *AssetCache) Resolver() AssetResolver {
	return func(key string) bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.states[key] == assetReady
	}
}

func (c *AssetCache) Texture(key string) (*TextureAsset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.textures[key]
	return t, ok && c.states[key] == assetReady
}

func (c *AssetCache) Mesh(key string) (*MeshAsset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meshes[key]
	return m, ok && c.states[key] == assetReady
}

// RegisterTexture stores an already-decoded texture under the key.
func (c *AssetCache) RegisterTexture(key string, texels []uint8, width, height uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textures[key] = &TextureAsset{Id: makeAssetId(), Texels: texels, Width: width, Height: height}
	c.states[key] = assetReady
}

// RegisterMesh stores mesh geometry under the key.
func (c *AssetCache) RegisterMesh(key string, vertices []MeshVertex, indices []uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meshes[key] = &MeshAsset{Id: makeAssetId(), Vertices: vertices, Indices: indices}
	c.states[key] = assetReady
}

// LoadTexturePNG decodes the file off the caller's thread. The key is
// claimed immediately; until the decode finishes the resolver answers false
// for it.
func (c *AssetCache) LoadTexturePNG(key string, filename string) {
	c.mu.Lock()
	if _, exists := c.states[key]; exists {
		c.mu.Unlock()
		return
	}
	c.states[key] = assetLoading
	c.mu.Unlock()

	go func() {
		tex, err := decodePNG(filename)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.log.Warnf("assets: loading %s from %s failed: %v", key, filename, err)
			c.states[key] = assetFailed
			return
		}
		tex.Id = makeAssetId()
		c.textures[key] = tex
		c.states[key] = assetReady
	}()
}

func decodePNG(filename string) (*TextureAsset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxTextureDim || h > maxTextureDim {
		scale := float64(maxTextureDim) / float64(max(w, h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		img = scaled
		bounds = scaled.Bounds()
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}

	return &TextureAsset{
		Texels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// AssetsModule installs the shared asset cache.
type AssetsModule struct{}

func (AssetsModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetCache(app.Logger()))
}
