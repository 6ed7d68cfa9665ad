// Package hcl is the HCL snapshot codec, for graphs written and reviewed by
// hand:
//
//	node "value" "a" {
//	  position = [0, 0]
//	  values = {
//	    x = 3
//	  }
//	}
//
//	node "minimum" "b" {
//	  position = [160, 0]
//	}
//
//	edge {
//	  from = "a.output"
//	  to   = "b.a"
//	}
//
// Importing the package registers the codec for ".hcl" files with package
// snapshot.
package hcl
