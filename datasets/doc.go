// Package datasets defines labeled image samples, their canonical raster
// form and the windows used to limit decoding to part of an enumeration.
package datasets
