//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Exports the sample scene from testdata.
func (Run) Sample() error {
	fmt.Println("Exporting sample scene...")
	if _, err := executeCmd("go",
		withArgs("run", ".", "export", "testdata/sample.gltf"), withStream()); err != nil {
		return err
	}
	return nil
}
