package storage

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path"
)

const (
	productsFile   = "products.jz"
	categoriesFile = "categories.json"
	inventoryFile  = "inventory.json"
	storesFile     = "stores.json"
)

// StorageProvider is the persistence surface handed to packages that only
// load and save one document.
type StorageProvider interface {
	SaveJson(data any, name string) error
	LoadJson(data any, name string) error
}

// DiskStorage persists snapshots as JSON files under a data directory.
// Writes go to a temp file first and rename into place so a crash mid-save
// never corrupts the previous snapshot.
type DiskStorage struct {
	Path string
}

func NewDiskStorage(dataPath string) *DiskStorage {
	if dataPath == "" {
		dataPath = "data"
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		log.Printf("Failed to create data directory %s: %v", dataPath, err)
	}
	return &DiskStorage{Path: dataPath}
}

func (d *DiskStorage) GetFileName(name string) (string, string) {
	fileName := path.Join(d.Path, name)
	return fileName, fileName + ".tmp"
}

func (d *DiskStorage) SaveJson(data any, name string) error {
	fileName, tmpFileName := d.GetFileName(name)

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(file)
	err = enc.Encode(data)
	file.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (d *DiskStorage) LoadJson(data any, name string) error {
	fileName, _ := d.GetFileName(name)
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (d *DiskStorage) SaveGzippedJson(data any, name string) error {
	fileName, tmpFileName := d.GetFileName(name)

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	defer file.Close()
	zipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(zipWriter)

	if err = enc.Encode(data); err != nil {
		zipWriter.Close()
		_ = os.Remove(tmpFileName)
		return err
	}
	if err = zipWriter.Close(); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (d *DiskStorage) LoadGzippedJson(data any, name string) error {
	fileName, _ := d.GetFileName(name)
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer zipReader.Close()

	err = json.NewDecoder(zipReader).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
