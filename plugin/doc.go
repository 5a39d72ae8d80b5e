// Package plugin loads semantic functions and keeps the function registry.
//
// A plugin directory looks like:
//
//	WriterPlugin/
//	    ShortPoem/
//	        skprompt.txt
//	        config.json
//	    NovelOutline.yaml
//
// LoadDirectory turns each entry into a SemanticFunction. A Collection holds
// semantic and native functions side by side and implements core.Lookup so
// templates can call them.
package plugin
