package scramble

// wordList feeds the scramble duel. Words are lowercase, 5+ letters,
// and none is a single repeated letter, so a distinct shuffle always
// exists.
var wordList = []string{
	"anchor", "arrow", "banner", "barrel", "battle", "beacon",
	"blade", "bridge", "candle", "castle", "cavern", "charge",
	"copper", "crystal", "dagger", "dragon", "dungeon", "ember",
	"falcon", "forest", "fortress", "gallop", "garrison", "glacier",
	"goblet", "granite", "guardian", "hammer", "harbor", "harvest",
	"hunter", "javelin", "knight", "lantern", "legend", "marble",
	"meadow", "mountain", "outpost", "phoenix", "pillar", "plunder",
	"potion", "quiver", "rampart", "raven", "relic", "saddle",
	"scepter", "shield", "silver", "smith", "spear", "stable",
	"steed", "storm", "sword", "tavern", "temple", "thunder",
	"timber", "tower", "trader", "treasure", "valley", "village",
	"wagon", "warrior", "willow", "wizard",
}
