// Package tables declares the exercise taxonomy tables kept in sync with
// the source files.
package tables

import "github.com/JonMunkholm/refsync/internal/core"

// Descriptors returns the taxonomy table declarations in declaration order.
// The slice is freshly built on every call.
func Descriptors() []core.TableDescriptor {
	var descs []core.TableDescriptor
	descs = append(descs, lookupTables()...)
	descs = append(descs, motionTables()...)
	descs = append(descs, equipmentTables()...)
	descs = append(descs, scoringTables()...)
	return descs
}

// Default builds the taxonomy registry. It panics if the declarations break
// the tier contract, which is a programming error.
func Default() *core.Registry {
	reg, err := core.NewRegistry(Descriptors()...)
	if err != nil {
		panic(err)
	}
	return reg
}
