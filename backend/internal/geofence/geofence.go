// Package geofence 圆形地理围栏判定（大圆距离 + 半径边界包含）
package geofence

import "math"

// EarthRadiusMeters 地球平均半径（米）
const EarthRadiusMeters = 6371000.0

// Point WGS-84 坐标（度）
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fence 以 Center 为圆心、RadiusMeters 为半径的圆形区域
type Fence struct {
	Center       Point   `json:"center"`
	RadiusMeters float64 `json:"radius_m"`
}

// Result 单次判定结果
type Result struct {
	DistanceMeters float64
	Inside         bool
}

// Evaluate 计算 p 到围栏中心的距离并判定是否在围栏内（边界包含）
func Evaluate(p Point, f Fence) Result {
	d := Distance(p, f.Center)
	return Result{
		DistanceMeters: d,
		Inside:         d <= f.RadiusMeters,
	}
}

// Distance haversine 大圆距离（米），对称
func Distance(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// 浮点误差可能让 h 略超出 [0,1]，对跖点时 sqrt(1-h) 会得到 NaN
	h = math.Max(0, math.Min(1, h))

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Valid 坐标为有限数值且落在 WGS-84 取值范围内
func (p Point) Valid() bool {
	if !IsFinite(p.Lat) || !IsFinite(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// IsFinite 非 NaN 且非 ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Destination 从 origin 沿方位角 bearingDeg 前进 distance 米后的坐标
func Destination(origin Point, bearingDeg, distance float64) Point {
	lat1 := toRad(origin.Lat)
	lng1 := toRad(origin.Lng)
	brng := toRad(bearingDeg)
	ang := distance / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(ang)*math.Cos(lat1),
		math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Point{Lat: toDeg(lat2), Lng: normalizeLng(toDeg(lng2))}
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeLng(lng float64) float64 {
	return math.Mod(lng+540, 360) - 180
}
