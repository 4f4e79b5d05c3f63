// Package assets indexes the files under the asset directory, loads them
// through per-type loaders and reports changes made on disk while running.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima-tessellation/engine/assets/loaders"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
)

type AssetInfo struct {
	Path     string
	Type     resources.ResourceType
	Modified time.Time
}

type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader
	bus     *core.EventBus

	mutex sync.RWMutex

	// paths changed on disk, drained by Update on the main goroutine
	pending map[string]resources.ResourceType

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewAssetManager(bus *core.EventBus) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[resources.ResourceType]Loader),
		bus:      bus,
		pending:  make(map[string]resources.ResourceType),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(resources.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(resources.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(resources.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})
	am.registerLoader(resources.ResourceTypeConfig, &loaders.BinaryLoader{})

	return am, nil
}

// Initialize indexes assetsDir and every extra path, then starts watching
// them for changes.
func (am *AssetManager) Initialize(assetsDir string, extra ...string) error {
	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	for _, p := range extra {
		if p == "" {
			continue
		}
		if err := am.addRecursive(p); err != nil {
			return err
		}
	}
	if !am.started {
		am.started = true
		go am.start()
	}
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
// A plain file is watched through its directory.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	fi, err := os.Stat(name)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		am.indexFile(filepath.Clean(name), fi.ModTime())
		return am.fsnotify.Add(filepath.Dir(name))
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads the file at path with the loader registered for its type.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*resources.Resource, error) {
	path = filepath.Clean(path)
	assetType := determineAssetType(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		// Files outside the watched tree are loaded but not tracked.
		asset = AssetInfo{Path: path, Type: assetType}
	}
	am.mutex.Unlock()

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}

	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}
	res.Type = asset.Type
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *resources.Resource) error {
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// Asset reports what the index knows about path.
func (am *AssetManager) Asset(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[filepath.Clean(path)]
	return a, ok
}

// Update fires the change events collected since the last call. It must run
// on the goroutine that owns the event listeners.
func (am *AssetManager) Update() int {
	am.mutex.Lock()
	changed := am.pending
	am.pending = make(map[string]resources.ResourceType)
	am.mutex.Unlock()

	for path, assetType := range changed {
		switch assetType {
		case resources.ResourceTypeConfig:
			core.LogInfo("config %s changed", path)
			am.bus.Fire(core.EventContext{Type: core.EVENT_CODE_SCENE_CONFIG_CHANGED, Data: path})
		default:
			core.LogInfo("%s %s changed, it is picked up on the next backend initialisation", assetType, path)
		}
	}
	return len(changed)
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	if am.started {
		<-am.stopped
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("watching %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if err == nil && e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(filepath.Clean(e.Name), s.ModTime())
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(filepath.Clean(e.Name))
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.indexFile(filepath.Clean(walkPath), fi.ModTime())
		return nil
	})
}

func (am *AssetManager) indexFile(path string, modified time.Time) resources.ResourceType {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return assetType
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path:     path,
		Type:     assetType,
		Modified: modified,
	}
	return assetType
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, modified time.Time) {
	am.mutex.RLock()
	prev, known := am.assets[path]
	am.mutex.RUnlock()
	// editors often emit several writes for one save
	if known && !modified.After(prev.Modified) {
		return
	}

	assetType := am.indexFile(path, modified)
	if assetType == resources.ResourceTypeNone {
		return
	}
	am.mutex.Lock()
	am.pending[path] = assetType
	am.mutex.Unlock()
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) resources.ResourceType {
	switch filepath.Ext(path) {
	case ".toml":
		return resources.ResourceTypeConfig
	case ".spv":
		return resources.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return resources.ResourceTypeImage
	case ".fnt":
		return resources.ResourceTypeBitmapFont
	default:
		return resources.ResourceTypeNone
	}
}
