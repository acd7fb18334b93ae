package asset

// DemoMapID is the id of the built-in demo map
const DemoMapID = "100000000"

// DefaultDemoMap is the built-in map served when the asset tree has no match
const DefaultDemoMap = `
id = "100000000"
name = "Henesys Training Field"
background = "skyblue"
bgm = 220.0

[world]
x = -1200
y = -600
width = 3200
height = 1400

# === Mobs ===

[[life]]
id = 100100
name = "Snail"
kind = "mob"
x = -800
y = 300
color = "green"
patrol = 120
speed = 40.0
frames = [
    { x = -20, y = -30, width = 40, height = 30, delay_ms = 180 },
    { x = -22, y = -28, width = 44, height = 28, delay_ms = 180 },
]

[[life]]
id = 100101
name = "Blue Snail"
kind = "mob"
x = 100
y = 300
color = "blue"
patrol = 200
speed = 35.0
frames = [
    { x = -22, y = -32, width = 44, height = 32, delay_ms = 200 },
    { x = -24, y = -30, width = 48, height = 30, delay_ms = 200 },
]

[[life]]
id = 1210100
name = "Pig"
kind = "mob"
x = 900
y = 500
color = "pink"
patrol = 300
speed = 60.0
frames = [
    { x = -35, y = -45, width = 70, height = 45, delay_ms = 150 },
    { x = -35, y = -48, width = 70, height = 48, delay_ms = 150 },
    { x = -35, y = -45, width = 70, height = 45, delay_ms = 150 },
]

[[life]]
id = 120100
name = "Shroom"
kind = "mob"
x = 1500
y = 100
color = "orange"
patrol = 80
speed = 30.0
frames = [
    { x = -25, y = -50, width = 50, height = 50, delay_ms = 240 },
]

[[life]]
id = 1012101
name = "Maya"
kind = "npc"
x = -300
y = 500
color = "purple"
frames = [
    { x = -18, y = -70, width = 36, height = 70, delay_ms = 0 },
]

# === Static shapes ===

[[portal]]
name = "west"
x = -1150
y = 430
width = 60
height = 70

[[portal]]
name = "warp"
x = 600
y = 230
width = 50
height = 70
in_map = true

[[foothold]]
x = -1200
y = 500
width = 3200
height = 12

[[foothold]]
x = -900
y = 300
width = 1400
height = 10

[[ladder]]
x = 480
y = 300
width = 20
height = 200
color = "tan"

[[tile]]
x = -1200
y = 512
width = 3200
height = 288
color = "saddlebrown"
`

var builtinMaps = map[string]string{
	DemoMapID: DefaultDemoMap,
}
