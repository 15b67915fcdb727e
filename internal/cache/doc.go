// Package cache stores image URLs that were already discovered, so later
// runs can skip scraping the source pages.
//
// # File Format
//
// The cache is plain text with one row per line:
//
//	2023-05-01 9a8b7c6d5e4f.gif
//	2023-05-02 https://featureassets.gocomics.com/assets/0f1e2d
//
// The URL may be minified: when it starts with the store's base prefix
// (DefaultBase) the prefix is left out. Blank lines are ignored.
//
// # Lifecycle
//
//	store := cache.NewStore(afero.NewOsFs(), cache.DefaultBase)
//	urls, err := store.Load(ctx, client, cache.DefaultSource)
//	// during the run, for every resolved URL:
//	err = store.Append(path, date, url)
//	// once at the end:
//	err = store.Normalize(path)
package cache
