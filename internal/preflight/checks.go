package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"veritas/internal/classifier"
	"veritas/internal/face"
	"veritas/internal/ledger"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckClassifierBundle verifies the model file exists and the manifest parses.
func CheckClassifierBundle(dir string) Result {
	const name = "Classifier bundle"
	if dir == "" {
		return Result{Name: name, Detail: "bundle_dir not configured"}
	}
	modelPath := filepath.Join(dir, classifier.ModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s missing", modelPath)}
	}
	bundle, err := classifier.LoadBundle(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (input %dpx, %d labels)", dir, bundle.InputSize, len(bundle.Labels))}
}

// CheckFaceCascade verifies the cascade file unpacks.
func CheckFaceCascade(path string) Result {
	const name = "Face cascade"
	locator, err := face.NewLocator(face.Options{CascadePath: path})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !locator.Available() {
		return Result{Name: name, Detail: "cascade not loaded"}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckLedger verifies the ledger database opens with the expected schema.
func CheckLedger(ctx context.Context, path string) Result {
	const name = "Ledger"
	store, err := ledger.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	entries, err := store.List(ctx, 1)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (empty)", path)
	if len(entries) > 0 {
		detail = fmt.Sprintf("%s (last analysis %s)", path, entries[0].CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
